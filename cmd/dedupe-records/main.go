// Command dedupe-records scans cumulative_amount_epower for consecutive
// rows sharing the same (recorded_at, kwh) pair and deletes the
// duplicates, unless run with -dry-run.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/ak1211/uchinoepower/internal/config"
	"github.com/ak1211/uchinoepower/internal/sink"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report duplicates without deleting them")
	flag.Parse()

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

	groups, err := s.FindDuplicateCumulativeAmounts(ctx)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	var dropIDs []int64
	for _, group := range groups {
		log.Printf("duplicate group: keep id=%d, drop ids=%v", group.KeepID, group.DropIDs)
		dropIDs = append(dropIDs, group.DropIDs...)
	}
	log.Printf("%d duplicate row(s) found across %d group(s)", len(dropIDs), len(groups))

	if *dryRun {
		log.Println("dry run: no rows deleted")
		return
	}

	if err := s.DeleteCumulativeAmounts(ctx, dropIDs); err != nil {
		log.Fatalf("delete: %v", err)
	}
	log.Printf("deleted %d duplicate row(s)", len(dropIDs))
}
