// cmd/seed/main.go
// Populates a database with a demo series, one event and a small
// roster so the API can be exercised locally.
//
// Usage:
//
//	go run ./cmd/seed -teams 12 -rounds 3
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rodeoware/ropingapi/config"
	"github.com/rodeoware/ropingapi/core"
	bundb "github.com/rodeoware/ropingapi/db"
	"github.com/rodeoware/ropingapi/models"
	"github.com/rodeoware/ropingapi/store"
)

var firstNames = []string{
	"Cole", "Ty", "Wade", "Lane", "Cash", "Colt", "Rhett", "Stetson",
	"Brody", "Tanner", "Jace", "Dally", "Wyatt", "Clay", "Royce", "Gus",
}

func main() {
	teams := flag.Int("teams", 12, "number of teams to enter")
	rounds := flag.Int64("rounds", 3, "rounds in the demo event")
	flag.Parse()

	if *teams < 1 || *teams > 64 {
		log.Fatal("-teams must be between 1 and 64")
	}
	if *rounds < 1 {
		log.Fatal("-rounds must be at least 1")
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	series := &models.Series{
		Name:   "Demo Series",
		Season: fmt.Sprint(time.Now().Year()),
		Status: models.SeriesStatusActive,
	}
	if _, err := db.NewInsert().Model(series).Exec(ctx); err != nil {
		log.Fatal("insert series:", err)
	}

	fee := 25.0
	pool := 500.0
	event := &models.Event{
		SeriesID:  series.ID,
		Name:      "Demo Jackpot",
		Date:      time.Now().Format("2006-01-02"),
		Status:    models.EventStatusActive,
		Rounds:    *rounds,
		EntryFee:  &fee,
		PrizePool: &pool,
	}
	if _, err := db.NewInsert().Model(event).Exec(ctx); err != nil {
		log.Fatal("insert event:", err)
	}

	for i := 0; i < *teams; i++ {
		header := &models.Roper{
			FirstName: firstNames[(2*i)%len(firstNames)],
			LastName:  fmt.Sprintf("Header%02d", i+1),
			Specialty: models.SpecialtyHeader,
			Rating:    int64(3 + i%5),
			Level:     models.LevelAmateur,
			IsActive:  true,
		}
		heeler := &models.Roper{
			FirstName: firstNames[(2*i+1)%len(firstNames)],
			LastName:  fmt.Sprintf("Heeler%02d", i+1),
			Specialty: models.SpecialtyHeeler,
			Rating:    int64(3 + (i+2)%5),
			Level:     models.LevelAmateur,
			IsActive:  true,
		}
		if _, err := db.NewInsert().Model(header).Exec(ctx); err != nil {
			log.Fatal("insert header:", err)
		}
		if _, err := db.NewInsert().Model(heeler).Exec(ctx); err != nil {
			log.Fatal("insert heeler:", err)
		}

		team := &models.Team{
			EventID:  event.ID,
			HeaderID: header.ID,
			HeelerID: heeler.ID,
			Rating:   float64(header.Rating + heeler.Rating),
			Status:   models.TeamStatusActive,
		}
		if _, err := db.NewInsert().Model(team).Exec(ctx); err != nil {
			log.Fatal("insert team:", err)
		}
	}

	percentages := []float64{0.5, 0.3, 0.2}
	for pos, pct := range percentages {
		rule := &models.PayoffRule{
			EventID:    event.ID,
			Position:   int64(pos + 1),
			Percentage: pct,
			IsActive:   true,
		}
		if _, err := db.NewInsert().Model(rule).Exec(ctx); err != nil {
			log.Fatal("insert payoff rule:", err)
		}
	}

	engine := core.NewEngine(store.New(db))
	slots, err := engine.GenerateBatch(ctx, event.ID, *rounds, true)
	if err != nil {
		log.Fatal("generate draw:", err)
	}

	fmt.Printf("seeded series %d, event %d, %d teams, %d draw slots\n",
		series.ID, event.ID, *teams, slots)
}
