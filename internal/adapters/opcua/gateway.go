// Package opcua drives the measurement instrument's limit graphs over OPC UA.
//
// Node layout below Root in namespace Namespace:
//
//	<Root>.Control.SignalPathIndex         Int32, write
//	<Root>.Control.MeasurementIndex        Int32, write
//	<Root>.Graphs.<result>.Kind            String "XY" or "Meter", read
//	<Root>.Graphs.<result>.Ch<n>.UpperLimit.X / .Y / .Value
//	<Root>.Graphs.<result>.Ch<n>.LowerLimit.X / .Y / .Value
package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

// Config captures the runtime details required to open an OPC UA session.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	SecurityMode    string        `yaml:"security_mode"`
	SecurityPolicy  string        `yaml:"security_policy"`
	ApplicationName string        `yaml:"application_name"`
	Namespace       uint16        `yaml:"namespace"`
	Root            string        `yaml:"root"`
	Timeout         time.Duration `yaml:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "Lyceum Limit Editor"
	}
	if c.Namespace == 0 {
		c.Namespace = 2
	}
	if c.Root == "" {
		c.Root = "Instrument"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if strings.ContainsAny(c.Root, " \t") {
		return fmt.Errorf("root %q must not contain whitespace", c.Root)
	}
	return nil
}

// nodeIO is the part of *opcua.Client the gateway uses.
type nodeIO interface {
	Read(ctx context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error)
	Write(ctx context.Context, req *ua.WriteRequest) (*ua.WriteResponse, error)
}

var errNotConnected = errors.New("opcua gateway not connected")

type Gateway struct {
	cfg    Config
	mu     sync.Mutex
	client *opcua.Client
	io     nodeIO
}

func NewGateway(cfg Config) (*Gateway, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gateway{cfg: cfg}, nil
}

// Connect opens the OPC UA session.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.io != nil {
		return fmt.Errorf("opcua gateway already connected")
	}

	client, err := opcua.NewClient(g.cfg.Endpoint, g.buildClientOptions()...)
	if err != nil {
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("opcua connect: %w", err)
	}
	g.client = client
	g.io = client
	return nil
}

func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	client := g.client
	g.client = nil
	g.io = nil
	g.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (g *Gateway) ShowMeasurement(signalPathIndex, measurementIndex int) error {
	if signalPathIndex < 0 || measurementIndex < 0 {
		return &domain.NotFoundError{Kind: domain.MeasurementNotFound, Name: fmt.Sprintf("%d/%d", signalPathIndex, measurementIndex)}
	}
	err := g.write(
		nodeValue{g.node("Control.SignalPathIndex"), ua.MustVariant(int32(signalPathIndex))},
		nodeValue{g.node("Control.MeasurementIndex"), ua.MustVariant(int32(measurementIndex))},
	)
	if isUnknownNode(err) || errors.Is(err, ua.StatusBadOutOfRange) {
		return &domain.NotFoundError{Kind: domain.MeasurementNotFound, Name: fmt.Sprintf("%d/%d", signalPathIndex, measurementIndex)}
	}
	return err
}

func (g *Gateway) Graph(resultName string) (ports.Graph, error) {
	v, err := g.read(g.node("Graphs." + resultName + ".Kind"))
	if isUnknownNode(err) {
		return nil, &domain.NotFoundError{Kind: domain.GraphNotFound, Name: resultName}
	}
	if err != nil {
		return nil, err
	}
	kind, _ := v.Value().(string)
	kind = strings.ToLower(kind)
	switch {
	case strings.HasPrefix(kind, "xy"), strings.HasPrefix(kind, "meter"):
		return &graph{gw: g, name: resultName, xy: strings.HasPrefix(kind, "xy")}, nil
	default:
		return nil, &domain.NotFoundError{Kind: domain.GraphNotFound, Name: fmt.Sprintf("%s (kind %q)", resultName, kind)}
	}
}

type graph struct {
	gw   *Gateway
	name string
	xy   bool
}

func (gr *graph) IsXYGraph() bool    { return gr.xy }
func (gr *graph) IsMeterGraph() bool { return !gr.xy }

func (gr *graph) SetLimitXY(p domain.Polarity, channel int, x, y []float64) error {
	base := gr.limitPath(p, channel)
	return gr.gw.write(
		nodeValue{gr.gw.node(base + ".X"), ua.MustVariant(nonNil(x))},
		nodeValue{gr.gw.node(base + ".Y"), ua.MustVariant(nonNil(y))},
	)
}

func (gr *graph) SetLimitMeter(p domain.Polarity, channel int, value float64) error {
	return gr.gw.write(nodeValue{gr.gw.node(gr.limitPath(p, channel) + ".Value"), ua.MustVariant(value)})
}

func (gr *graph) limitPath(p domain.Polarity, channel int) string {
	side := "UpperLimit"
	if p == domain.Lower {
		side = "LowerLimit"
	}
	return fmt.Sprintf("Graphs.%s.Ch%d.%s", gr.name, channel, side)
}

func (g *Gateway) node(path string) *ua.NodeID {
	return ua.NewStringNodeID(g.cfg.Namespace, g.cfg.Root+"."+path)
}

func (g *Gateway) conn() (nodeIO, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.io == nil {
		return nil, errNotConnected
	}
	return g.io, nil
}

func (g *Gateway) read(id *ua.NodeID) (*ua.Variant, error) {
	c, err := g.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.Timeout)
	defer cancel()

	resp, err := c.Read(ctx, &ua.ReadRequest{
		NodesToRead:        []*ua.ReadValueID{{NodeID: id, AttributeID: ua.AttributeIDValue}},
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	})
	if err != nil {
		return nil, fmt.Errorf("opcua read %s: %w", id, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("opcua read %s: empty result", id)
	}
	if st := resp.Results[0].Status; st != ua.StatusOK {
		return nil, fmt.Errorf("opcua read %s: %w", id, st)
	}
	return resp.Results[0].Value, nil
}

type nodeValue struct {
	id *ua.NodeID
	v  *ua.Variant
}

// write sets all values in one request. Every write must succeed.
func (g *Gateway) write(values ...nodeValue) error {
	c, err := g.conn()
	if err != nil {
		return err
	}
	req := &ua.WriteRequest{}
	for _, nv := range values {
		req.NodesToWrite = append(req.NodesToWrite, &ua.WriteValue{
			NodeID:      nv.id,
			AttributeID: ua.AttributeIDValue,
			Value: &ua.DataValue{
				EncodingMask: ua.DataValueValue,
				Value:        nv.v,
			},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.Timeout)
	defer cancel()

	resp, err := c.Write(ctx, req)
	if err != nil {
		return fmt.Errorf("opcua write: %w", err)
	}
	for i, st := range resp.Results {
		if st != ua.StatusOK && i < len(req.NodesToWrite) {
			return fmt.Errorf("opcua write %s: %w", req.NodesToWrite[i].NodeID, st)
		}
	}
	return nil
}

func (g *Gateway) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(g.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(g.cfg.SecurityPolicy)),
		opcua.ApplicationName(g.cfg.ApplicationName),
		opcua.RequestTimeout(g.cfg.Timeout),
		opcua.AutoReconnect(true),
	}

	if g.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(g.cfg.Username, g.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func isUnknownNode(err error) bool {
	return errors.Is(err, ua.StatusBadNodeIDUnknown)
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}

var _ ports.Gateway = (*Gateway)(nil)
