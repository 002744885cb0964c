package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

type JobID uint64

// ExportJob asks for one (Result, Polarity) to be pushed to the instrument.
type ExportJob struct {
	ID       JobID
	Result   *domain.Result
	Polarity domain.Polarity
}

type ExportQueue interface {
	Enqueue(job ExportJob) bool
	DequeueBatch(max int) []ExportJob
	Len() int
}
