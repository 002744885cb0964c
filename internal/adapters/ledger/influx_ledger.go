package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

const defaultMeasurement = "limit_exports"

// InfluxLedger writes one point per accepted channel limit. XY curves are
// summarised (point count, X and Y range); Meter limits carry the value.
type InfluxLedger struct {
	client      influxdb2.Client
	write       api.WriteAPIBlocking
	measurement string
	timeout     time.Duration
}

func NewInfluxLedger(url, token, org, bucket, measurement string) *InfluxLedger {
	if measurement == "" {
		measurement = defaultMeasurement
	}
	client := influxdb2.NewClient(url, token)
	return &InfluxLedger{
		client:      client,
		write:       client.WriteAPIBlocking(org, bucket),
		measurement: measurement,
		timeout:     10 * time.Second,
	}
}

func (l *InfluxLedger) Name() string { return "influx" }

func (l *InfluxLedger) Record(records []*domain.ExportRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(records))
	for _, r := range records {
		points = append(points, l.point(r))
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx ledger write: %w", err)
	}
	return nil
}

func (l *InfluxLedger) point(r *domain.ExportRecord) *write.Point {
	sp, meas, res, _ := r.Key.Parts()
	tags := map[string]string{
		"signal_path": sp,
		"measurement": meas,
		"result":      res,
		"polarity":    r.Polarity.String(),
		"channel":     strconv.Itoa(r.Channel),
	}

	fields := map[string]interface{}{}
	if r.ValueType == domain.ValueTypeMeter {
		fields["value"] = r.Value
	} else {
		fields["points"] = len(r.X)
		if len(r.X) > 0 {
			fields["x_first"] = r.X[0]
			fields["x_last"] = r.X[len(r.X)-1]
		}
		if len(r.Y) > 0 {
			lo, hi := r.Y[0], r.Y[0]
			for _, y := range r.Y[1:] {
				lo, hi = min(lo, y), max(hi, y)
			}
			fields["y_min"], fields["y_max"] = lo, hi
		}
	}
	return influxdb2.NewPoint(l.measurement, tags, fields, r.ExportedAt)
}

func (l *InfluxLedger) Close() {
	l.client.Close()
}

var _ ports.ExportLedger = (*InfluxLedger)(nil)
