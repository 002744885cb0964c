package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000"
)

func main() {
	out := flag.String("out", "limits.lyc", "where to write the limit family")
	flag.Parse()

	level := lyceum.NewResult(0, 0, 0, "SP1", "Frequency Response", "Level", lyceum.ValueTypeXY, 2)
	level.Upper.Enabled = true

	s, err := lyceum.NewSession(lyceum.DefaultConfig(), lyceum.WithResults(level))
	if err != nil {
		log.Fatalf("new session: %v", err)
	}
	s.SetApplyToAll(true)

	if err := s.Select(level.Key(), true); err != nil {
		log.Fatalf("select: %v", err)
	}
	for _, pt := range []lyceum.LimitPoint{lyceum.XY(20, 6), lyceum.XY(1000, 3), lyceum.XY(20000, 6)} {
		if _, err := s.Insert(0, lyceum.NoAnchor, false, pt); err != nil {
			log.Fatalf("insert: %v", err)
		}
	}

	pts, err := s.Channel(1)
	if err != nil {
		log.Fatalf("channel: %v", err)
	}
	fmt.Printf("channel 1 holds %d points after apply-to-all\n", len(pts))

	if err := s.SaveFamily(*out); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}
