// Package instrument provides an in-memory stand-in for the measurement
// instrument. It remembers every limit written to it.
package instrument

import (
	"fmt"
	"sync"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

type measurement struct{ signalPath, index int }

// LimitValue is what the instrument holds for one channel and polarity.
type LimitValue struct {
	X     []float64
	Y     []float64
	Value float64
}

type Memory struct {
	mu      sync.Mutex
	graphs  map[measurement]map[string]*Graph
	current *measurement
}

func NewMemory() *Memory {
	return &Memory{graphs: map[measurement]map[string]*Graph{}}
}

// FromResults builds an instrument with one graph per result, placed under
// the result's signal path and measurement indices.
func FromResults(results []*domain.Result) *Memory {
	m := NewMemory()
	for _, r := range results {
		m.AddGraph(r.SignalPathIndex, r.MeasurementIndex, r.ResultName, r.ValueType)
	}
	return m
}

func (m *Memory) AddGraph(signalPath, meas int, name string, vt domain.ValueType) *Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := measurement{signalPath, meas}
	if m.graphs[key] == nil {
		m.graphs[key] = map[string]*Graph{}
	}
	g := &Graph{name: name, kind: vt, limits: map[limitKey]LimitValue{}}
	m.graphs[key][name] = g
	return g
}

func (m *Memory) ShowMeasurement(signalPathIndex, measurementIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := measurement{signalPathIndex, measurementIndex}
	if _, ok := m.graphs[key]; !ok {
		return &domain.NotFoundError{Kind: domain.MeasurementNotFound, Name: fmt.Sprintf("%d/%d", signalPathIndex, measurementIndex)}
	}
	m.current = &key
	return nil
}

func (m *Memory) Graph(resultName string) (ports.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, &domain.NotFoundError{Kind: domain.MeasurementNotFound, Name: "no measurement shown"}
	}
	g, ok := m.graphs[*m.current][resultName]
	if !ok {
		return nil, &domain.NotFoundError{Kind: domain.GraphNotFound, Name: resultName}
	}
	return g, nil
}

// Find returns the graph named resultName under the given measurement.
func (m *Memory) Find(signalPath, meas int, resultName string) (*Graph, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.graphs[measurement{signalPath, meas}][resultName]
	return g, ok
}

type limitKey struct {
	polarity domain.Polarity
	channel  int
}

type Graph struct {
	mu     sync.Mutex
	name   string
	kind   domain.ValueType
	limits map[limitKey]LimitValue
}

func (g *Graph) IsXYGraph() bool    { return g.kind == domain.ValueTypeXY }
func (g *Graph) IsMeterGraph() bool { return g.kind == domain.ValueTypeMeter }

func (g *Graph) SetLimitXY(p domain.Polarity, channel int, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("graph %s: %d x values for %d y values", g.name, len(x), len(y))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits[limitKey{p, channel}] = LimitValue{
		X: append([]float64{}, x...),
		Y: append([]float64{}, y...),
	}
	return nil
}

func (g *Graph) SetLimitMeter(p domain.Polarity, channel int, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits[limitKey{p, channel}] = LimitValue{Value: value}
	return nil
}

// Limit returns what was last written for polarity p on channel.
func (g *Graph) Limit(p domain.Polarity, channel int) (LimitValue, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.limits[limitKey{p, channel}]
	return v, ok
}

var _ ports.Gateway = (*Memory)(nil)
