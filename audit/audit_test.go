package audit

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/db"
	"github.com/rodeoware/ropingapi/models"
)

func testRecorder(t *testing.T) (*Recorder, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bdb.Close() })

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return New(bdb, zap.NewNop()), bdb
}

func TestRecordAndRecent(t *testing.T) {
	r, _ := testRecorder(t)
	ctx := context.Background()

	r.Record(ctx, "event.create", "event", 1, nil, "Jackpot")
	r.Record(ctx, "event.lock", "event", 1, nil, "")
	r.Record(ctx, "series.create", "series", 2, nil, "")

	rows, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].Action != "series.create" {
		t.Fatalf("newest first violated: %q", rows[0].Action)
	}
}

func TestForEntity(t *testing.T) {
	r, _ := testRecorder(t)
	ctx := context.Background()

	r.Record(ctx, "series.create", "series", 5, nil, "")
	r.Record(ctx, "series.update", "series", 5, nil, "")
	r.Record(ctx, "series.update", "series", 6, nil, "")

	rows, err := r.ForEntity(ctx, "series", 5, 0)
	if err != nil {
		t.Fatalf("ForEntity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows for series 5, got %d", len(rows))
	}
	for _, row := range rows {
		if row.EntityID == nil || *row.EntityID != 5 {
			t.Fatalf("row for wrong entity: %+v", row)
		}
	}
}

func TestForSeriesIncludesEventEntries(t *testing.T) {
	r, bdb := testRecorder(t)
	ctx := context.Background()

	series := &models.Series{Name: "S", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := bdb.NewInsert().Model(series).Exec(ctx); err != nil {
		t.Fatalf("insert series: %v", err)
	}
	event := &models.Event{SeriesID: series.ID, Name: "E", Date: "2026-09-10", Status: models.EventStatusActive, Rounds: 2}
	if _, err := bdb.NewInsert().Model(event).Exec(ctx); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	other := &models.Series{Name: "Other", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := bdb.NewInsert().Model(other).Exec(ctx); err != nil {
		t.Fatalf("insert other series: %v", err)
	}
	otherEvent := &models.Event{SeriesID: other.ID, Name: "O", Date: "2026-09-11", Status: models.EventStatusActive, Rounds: 2}
	if _, err := bdb.NewInsert().Model(otherEvent).Exec(ctx); err != nil {
		t.Fatalf("insert other event: %v", err)
	}

	r.Record(ctx, "series.update", "series", series.ID, nil, "")
	r.Record(ctx, "event.lock", "event", event.ID, nil, "")
	r.Record(ctx, "event.lock", "event", otherEvent.ID, nil, "")

	rows, err := r.ForSeries(ctx, series.ID, 0)
	if err != nil {
		t.Fatalf("ForSeries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows (series + its event), got %d", len(rows))
	}
	if rows[0].Action != "event.lock" || rows[1].Action != "series.update" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
