package ports

import "github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"

// Gateway is the instrument's control surface as consumed by the export path.
// Calls are synchronous; timeouts and retries belong to the implementation.
type Gateway interface {
	ShowMeasurement(signalPathIndex, measurementIndex int) error
	// Graph returns a *domain.NotFoundError of kind GraphNotFound when no
	// graph carries resultName in the shown measurement.
	Graph(resultName string) (Graph, error)
}

// Graph is one result graph on the instrument.
type Graph interface {
	IsXYGraph() bool
	IsMeterGraph() bool
	SetLimitXY(p domain.Polarity, channel int, x, y []float64) error
	SetLimitMeter(p domain.Polarity, channel int, value float64) error
}
