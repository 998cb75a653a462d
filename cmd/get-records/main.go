// Command get-records prints the most recent rows of each append-only
// measurement table, newest first — a thin read-only wrapper around the
// persistence layer's reporting queries.
package main

import (
	"context"
	"log"

	"github.com/ak1211/uchinoepower/internal/config"
	"github.com/ak1211/uchinoepower/internal/sink"
)

func main() {
	databaseURL, err := config.LoadDatabaseURL()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	s, err := sink.Open(databaseURL)
	if err != nil {
		log.Fatalf("sink: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	instantPower, err := s.RecentInstantPower(ctx)
	if err != nil {
		log.Fatalf("instant power: %v", err)
	}
	for _, rec := range instantPower {
		log.Printf("instant_epower\t%s\t%d", rec.RecordedAt, rec.Watt)
	}

	instantCurrent, err := s.RecentInstantCurrent(ctx)
	if err != nil {
		log.Fatalf("instant current: %v", err)
	}
	for _, rec := range instantCurrent {
		log.Printf("instant_current\t%s\t%s\t%v", rec.RecordedAt, rec.R, rec.T)
	}

	cumulative, err := s.RecentCumulativeAmount(ctx)
	if err != nil {
		log.Fatalf("cumulative amount: %v", err)
	}
	for _, rec := range cumulative {
		log.Printf("cumulative_amount_epower\t%s\t%s", rec.RecordedAt, rec.KWh)
	}
}
