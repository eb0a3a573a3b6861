package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/rodeoware/ropingapi/audit"
	"github.com/rodeoware/ropingapi/core"
	"github.com/rodeoware/ropingapi/db"
	"github.com/rodeoware/ropingapi/models"
	"github.com/rodeoware/ropingapi/store"
)

type testEnv struct {
	db *bun.DB
	h  *Handler
	e  *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
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

	log := zap.NewNop()
	engine := core.NewEngine(store.New(bdb),
		core.WithLogger(log),
		core.WithRand(rand.New(rand.NewSource(1))))
	h := New(bdb, engine, audit.New(bdb, log), log, []byte("test-key"))
	return &testEnv{db: bdb, h: h, e: echo.New()}
}

// do runs a handler directly and returns the recorder. Path params
// are given as alternating name/value pairs.
func (env *testEnv) do(t *testing.T, method, target, body string, fn echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	if err := fn(c); err != nil {
		env.e.HTTPErrorHandler(err, c)
	}
	return rec
}

func seedEventWithTeams(t *testing.T, env *testEnv, n int) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	series := &models.Series{Name: "Summer Series", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := env.db.NewInsert().Model(series).Exec(ctx); err != nil {
		t.Fatalf("insert series: %v", err)
	}
	fee, pool := 20.0, 100.0
	event := &models.Event{
		SeriesID:  series.ID,
		Name:      "Friday Jackpot",
		Date:      "2026-09-04",
		Status:    models.EventStatusActive,
		Rounds:    3,
		EntryFee:  &fee,
		PrizePool: &pool,
	}
	if _, err := env.db.NewInsert().Model(event).Exec(ctx); err != nil {
		t.Fatalf("insert event: %v", err)
	}

	teamIDs := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		header := &models.Roper{FirstName: fmt.Sprintf("H%d", i), LastName: "One", Specialty: models.SpecialtyHeader, Level: models.LevelAmateur, IsActive: true}
		heeler := &models.Roper{FirstName: fmt.Sprintf("L%d", i), LastName: "Two", Specialty: models.SpecialtyHeeler, Level: models.LevelAmateur, IsActive: true}
		if _, err := env.db.NewInsert().Model(header).Exec(ctx); err != nil {
			t.Fatalf("insert header: %v", err)
		}
		if _, err := env.db.NewInsert().Model(heeler).Exec(ctx); err != nil {
			t.Fatalf("insert heeler: %v", err)
		}
		team := &models.Team{EventID: event.ID, HeaderID: header.ID, HeelerID: heeler.ID, Rating: 6, Status: models.TeamStatusActive}
		if _, err := env.db.NewInsert().Model(team).Exec(ctx); err != nil {
			t.Fatalf("insert team: %v", err)
		}
		teamIDs = append(teamIDs, team.ID)
	}
	return event.ID, teamIDs
}

func TestCreateAndListSeries(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/series",
		`{"name":"Fall Series","season":"2026","status":"active"}`, env.h.CreateSeries)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/series", "", env.h.ListSeries)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Fall Series" {
		t.Fatalf("unexpected list %v", rows)
	}
}

func TestCreateSeriesRejectsBlankName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/series",
		`{"name":"  ","season":"2026"}`, env.h.CreateSeries)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateEventNormalizesLegacyStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	series := &models.Series{Name: "S", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := env.db.NewInsert().Model(series).Exec(ctx); err != nil {
		t.Fatalf("insert series: %v", err)
	}

	body := fmt.Sprintf(`{"seriesID":%d,"name":"Jackpot","date":"2026-10-01","status":"draft","rounds":2}`, series.ID)
	rec := env.do(t, http.MethodPost, "/api/events", body, env.h.CreateEvent)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var event models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Status != models.EventStatusUpcoming {
		t.Fatalf("status = %q, want upcoming", event.Status)
	}
}

func TestListEventsOrderedByDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	series := &models.Series{Name: "S", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := env.db.NewInsert().Model(series).Exec(ctx); err != nil {
		t.Fatalf("insert series: %v", err)
	}
	events := []models.Event{
		{SeriesID: series.ID, Name: "Late", Date: "2026-11-01", Status: models.EventStatusUpcoming, Rounds: 1},
		{SeriesID: series.ID, Name: "Early", Date: "2026-09-01", Status: models.EventStatusUpcoming, Rounds: 1},
		{SeriesID: series.ID, Name: "Mid", Date: "2026-10-01", Status: models.EventStatusUpcoming, Rounds: 1},
	}
	if _, err := env.db.NewInsert().Model(&events).Exec(ctx); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/events", "", env.h.ListEvents)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []models.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, want := range []string{"Early", "Mid", "Late"} {
		if rows[i].Name != want {
			t.Fatalf("row %d = %q, want %q", i, rows[i].Name, want)
		}
	}
}

func TestDashboardPotExcludesUpcomingEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	series := &models.Series{Name: "S", Season: "2026", Status: models.SeriesStatusActive}
	if _, err := env.db.NewInsert().Model(series).Exec(ctx); err != nil {
		t.Fatalf("insert series: %v", err)
	}
	soon := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	activePool, upcomingPool := 300.0, 500.0
	events := []models.Event{
		{SeriesID: series.ID, Name: "Running", Date: soon, Status: models.EventStatusActive, Rounds: 1, PrizePool: &activePool},
		{SeriesID: series.ID, Name: "Planned", Date: soon, Status: models.EventStatusUpcoming, Rounds: 1, PrizePool: &upcomingPool},
	}
	if _, err := env.db.NewInsert().Model(&events).Exec(ctx); err != nil {
		t.Fatalf("insert events: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/dashboard", "", env.h.DashboardStats)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Only events that have started or finished contribute to the pot.
	if out["totalPot"] != 300 {
		t.Fatalf("totalPot = %v, want 300", out["totalPot"])
	}
	// The 30 day window counts by date alone, not by status.
	if out["upcomingEvents"] != 2 {
		t.Fatalf("upcomingEvents = %v, want 2", out["upcomingEvents"])
	}
}

func TestCreateTeamDuplicateConflicts(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 1)

	var team models.Team
	if err := env.db.NewSelect().Model(&team).Where("event_id = ?", eventID).Scan(context.Background()); err != nil {
		t.Fatalf("select team: %v", err)
	}

	body := fmt.Sprintf(`{"eventID":%d,"headerID":%d,"heelerID":%d,"rating":6}`, eventID, team.HeaderID, team.HeelerID)
	rec := env.do(t, http.MethodPost, "/api/teams", body, env.h.CreateTeam)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreateTeamRefusedOnLockedEvent(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 1)
	ctx := context.Background()

	if _, err := env.db.NewUpdate().Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusLocked).
		Where("id = ?", eventID).
		Exec(ctx); err != nil {
		t.Fatalf("lock event: %v", err)
	}

	header := &models.Roper{FirstName: "New", LastName: "Header", Specialty: models.SpecialtyHeader, Level: models.LevelAmateur, IsActive: true}
	heeler := &models.Roper{FirstName: "New", LastName: "Heeler", Specialty: models.SpecialtyHeeler, Level: models.LevelAmateur, IsActive: true}
	if _, err := env.db.NewInsert().Model(header).Exec(ctx); err != nil {
		t.Fatalf("insert header: %v", err)
	}
	if _, err := env.db.NewInsert().Model(heeler).Exec(ctx); err != nil {
		t.Fatalf("insert heeler: %v", err)
	}

	body := fmt.Sprintf(`{"eventID":%d,"headerID":%d,"heelerID":%d}`, eventID, header.ID, heeler.ID)
	rec := env.do(t, http.MethodPost, "/api/teams", body, env.h.CreateTeam)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGenerateDrawAndSaveRunFlow(t *testing.T) {
	env := newTestEnv(t)
	eventID, teamIDs := seedEventWithTeams(t, env, 3)

	rec := env.do(t, http.MethodPost, "/api/events/1/draw/batch",
		`{"rounds":3,"shuffle":true}`, env.h.GenerateDrawBatch,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusOK {
		t.Fatalf("batch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["slots"] != 9 {
		t.Fatalf("slots = %d, want 9", out["slots"])
	}

	body := fmt.Sprintf(`{"eventID":%d,"teamID":%d,"round":1,"position":1,"timeSec":7.4,"penalty":5}`, eventID, teamIDs[0])
	rec = env.do(t, http.MethodPost, "/api/runs", body, env.h.SaveRun)
	if rec.Code != http.StatusOK {
		t.Fatalf("save run status = %d, body %s", rec.Code, rec.Body.String())
	}

	var run models.Run
	err := env.db.NewSelect().Model(&run).
		Where("event_id = ?", eventID).
		Where("team_id = ?", teamIDs[0]).
		Where("round = ?", 1).
		Scan(context.Background())
	if err != nil {
		t.Fatalf("select run: %v", err)
	}
	if run.TotalSec == nil || *run.TotalSec != 12.4 {
		t.Fatalf("total = %v, want 12.4", run.TotalSec)
	}

	rec = env.do(t, http.MethodGet, "/api/events/1/standings", "", env.h.Standings,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusOK {
		t.Fatalf("standings status = %d", rec.Code)
	}
	var standings []core.Standing
	if err := json.Unmarshal(rec.Body.Bytes(), &standings); err != nil {
		t.Fatalf("decode standings: %v", err)
	}
	if len(standings) == 0 || standings[0].TeamID != teamIDs[0] {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestGenerateDrawDefaultsSeedRunsAndReseed(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 3)

	// A request naming only the round still seeds pending runs.
	rec := env.do(t, http.MethodPost, "/api/events/1/draw",
		`{"round":1}`, env.h.GenerateDraw,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()
	runCount, err := env.db.NewSelect().Model((*models.Run)(nil)).
		Where("event_id = ?", eventID).Where("round = ?", 1).
		Where("status = ?", models.RunStatusPending).
		Count(ctx)
	if err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if runCount != 3 {
		t.Fatalf("seeded runs = %d, want 3", runCount)
	}

	drawCount, err := env.db.NewSelect().Model((*models.DrawEntry)(nil)).
		Where("event_id = ?", eventID).Where("round = ?", 1).
		Count(ctx)
	if err != nil {
		t.Fatalf("count draws: %v", err)
	}
	if drawCount != 3 {
		t.Fatalf("draw rows = %d, want 3", drawCount)
	}

	// An explicit false still wins over the default.
	rec = env.do(t, http.MethodPost, "/api/events/1/draw",
		`{"round":2,"seedRuns":false}`, env.h.GenerateDraw,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	runCount, err = env.db.NewSelect().Model((*models.Run)(nil)).
		Where("event_id = ?", eventID).Where("round = ?", 2).
		Count(ctx)
	if err != nil {
		t.Fatalf("count round 2 runs: %v", err)
	}
	if runCount != 0 {
		t.Fatalf("round 2 runs = %d, want 0", runCount)
	}
}

func TestGenerateDrawRefusedOnCompletedEvent(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 2)

	if _, err := env.db.NewUpdate().Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusCompleted).
		Where("id = ?", eventID).
		Exec(context.Background()); err != nil {
		t.Fatalf("complete event: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/events/1/draw",
		`{"round":1,"reseed":true,"seedRuns":true}`, env.h.GenerateDraw,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreatePayoffRuleValidatesPercentage(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 1)

	body := fmt.Sprintf(`{"eventID":%d,"position":1,"percentage":1.5}`, eventID)
	rec := env.do(t, http.MethodPost, "/api/payoffs", body, env.h.CreatePayoffRule)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPayoutBreakdown(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 5)
	ctx := context.Background()

	rules := []models.PayoffRule{
		{EventID: eventID, Position: 1, Percentage: 0.5, IsActive: true},
		{EventID: eventID, Position: 2, Percentage: 0.3, IsActive: true},
	}
	if _, err := env.db.NewInsert().Model(&rules).Exec(ctx); err != nil {
		t.Fatalf("insert rules: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/events/1/payouts", "", env.h.PayoutBreakdown,
		"eventID", fmt.Sprint(eventID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var breakdown core.PayoutBreakdown
	if err := json.Unmarshal(rec.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 100 pool + 20 × 5 teams
	if breakdown.TotalPot != 200 {
		t.Fatalf("total pot = %v, want 200", breakdown.TotalPot)
	}
	if len(breakdown.Payouts) != 2 || breakdown.Payouts[0].Amount != 100 {
		t.Fatalf("unexpected payouts %+v", breakdown.Payouts)
	}
}

func TestDeleteSeriesBlockedByLockedEvent(t *testing.T) {
	env := newTestEnv(t)
	eventID, _ := seedEventWithTeams(t, env, 1)
	ctx := context.Background()

	var seriesID int64
	if err := env.db.NewSelect().Model((*models.Event)(nil)).
		Column("series_id").
		Where("id = ?", eventID).
		Scan(ctx, &seriesID); err != nil {
		t.Fatalf("series id: %v", err)
	}
	if _, err := env.db.NewUpdate().Model((*models.Event)(nil)).
		Set("status = ?", models.EventStatusLocked).
		Where("id = ?", eventID).
		Exec(ctx); err != nil {
		t.Fatalf("lock event: %v", err)
	}

	rec := env.do(t, http.MethodDelete, "/api/series/1", "", env.h.DeleteSeries,
		"id", fmt.Sprint(seriesID))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
