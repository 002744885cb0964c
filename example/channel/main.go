package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/instrument"
)

func main() {
	var results []*lyceum.Result
	for i, name := range []string{"Left", "Right"} {
		r := lyceum.NewResult(0, 0, i, "SP1", "Frequency Response", name, lyceum.ValueTypeXY, 1)
		r.Lower.Enabled = true
		results = append(results, r)
	}

	ledger, batches, closeBatches := lyceum.NewChannelLedger("fanout", 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fanoutWorker("audit", batches)
	}()

	s, err := lyceum.NewSession(lyceum.DefaultConfig(),
		lyceum.WithResults(results...),
		lyceum.WithGateway(instrument.FromResults(results)),
		lyceum.WithLedger(ledger),
	)
	if err != nil {
		log.Fatalf("new session: %v", err)
	}

	for _, r := range results {
		if err := s.Select(r.Key(), false); err != nil {
			log.Fatalf("select %s: %v", r.Key(), err)
		}
		if _, err := s.Insert(0, lyceum.NoAnchor, false, lyceum.XY(100, -6)); err != nil {
			log.Fatalf("insert: %v", err)
		}
	}

	if _, err := s.ExportAll(); err != nil {
		log.Fatalf("export: %v", err)
	}
	closeBatches()
	wg.Wait()
}

func fanoutWorker(name string, batches <-chan []lyceum.ExportRecord) {
	for batch := range batches {
		for _, rec := range batch {
			fmt.Printf("[%s] %s %s channel %d: %d points\n", name, rec.Key, rec.Polarity, rec.Channel, len(rec.X))
		}
	}
}
