package main

import (
	"fmt"
	"log"
	"time"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/instrument"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/pkg/lyceum"
)

func main() {
	level := lyceum.NewResult(0, 0, 0, "SP1", "Frequency Response", "Level", lyceum.ValueTypeXY, 1)
	level.Upper.Enabled = true
	peak := lyceum.NewResult(0, 1, 0, "SP1", "THD", "Peak", lyceum.ValueTypeMeter, 1)
	peak.Upper.Enabled = true
	peak.Upper.Meter[0] = 0.03

	callback := func(batch []lyceum.ExportRecord) error {
		for _, rec := range batch {
			fmt.Printf("%s %s %s ch=%d x=%v y=%v value=%g\n",
				rec.ExportedAt.Format(time.RFC3339Nano),
				rec.Key,
				rec.Polarity,
				rec.Channel,
				rec.X,
				rec.Y,
				rec.Value,
			)
		}
		return nil
	}

	s, err := lyceum.NewSession(lyceum.DefaultConfig(),
		lyceum.WithResults(level, peak),
		lyceum.WithGateway(instrument.FromResults([]*lyceum.Result{level, peak})),
		lyceum.WithLedger(lyceum.NewCallbackLedger("stdout", callback)),
	)
	if err != nil {
		log.Fatalf("new session: %v", err)
	}

	if err := s.Select(level.Key(), true); err != nil {
		log.Fatalf("select: %v", err)
	}
	for _, pt := range []lyceum.LimitPoint{lyceum.XY(0, 0), lyceum.XY(100, 6), lyceum.XY(10000, 6)} {
		if _, err := s.Insert(0, lyceum.NoAnchor, false, pt); err != nil {
			log.Fatalf("insert: %v", err)
		}
	}

	rep, err := s.ExportAll()
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("exported=%d skipped=%d rejected=%d\n", rep.Exported, rep.Skipped, len(rep.Rejected))
}
