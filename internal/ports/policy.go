package ports

type Policy struct {
	MaxQueueLen  int
	MaxBatchSize int

	ApplyToAll       bool
	ElideLeadingZero bool

	OnGraphMissing string // "skip", "abort"
	InsertReading  string // "direct", "inverted"
}
