package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
	"github.com/yungbote/linguapath-backend/internal/services"
)

const e2eCurriculum = `
programs:
  - id: P
    name: Program
    stages:
      - id: S1
        name: Stage one
        units:
          - id: U1
            name: Unit one
            subconcepts:
              - {id: C1, max_score: 10}
              - {id: C2, max_score: 10}
      - id: S2
        name: Stage two
        units:
          - id: U2
            name: Unit two
            subconcepts:
              - {id: C3, max_score: 10}
`

func newSQLiteApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = ":memory:"
	cfg.Cache.Backend = "memory"

	a, err := Build(context.Background(), logger.Nop(), cfg)
	if err != nil {
		if strings.Contains(err.Error(), "CGO") {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(a.Close)

	doc, err := services.ParseCurriculum(strings.NewReader(e2eCurriculum))
	if err != nil {
		t.Fatalf("ParseCurriculum: %v", err)
	}
	if _, err := a.Services.CurriculumImport.ImportCurriculum(context.Background(), doc); err != nil {
		t.Fatalf("ImportCurriculum: %v", err)
	}
	return a
}

func serve(t *testing.T, a *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	return rec
}

func programReport(t *testing.T, a *App) types.ProgramReport {
	t.Helper()
	rec := serve(t, a, http.MethodGet, "/report/program/learner/P", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("program report: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out types.ProgramReport
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestWriteThenReadThroughHTTP(t *testing.T) {
	a := newSQLiteApp(t)

	before := programReport(t, a)
	if before.TotalStages != 2 || before.TotalUnits != 2 || before.TotalSubconcepts != 3 {
		t.Fatalf("totals: %+v", before)
	}
	if !before.Stages[0].Enabled || before.Stages[1].Enabled {
		t.Fatalf("enabled flags: %v %v", before.Stages[0].Enabled, before.Stages[1].Enabled)
	}

	rec := serve(t, a, http.MethodPost, "/progress/attempts", `{"user_id":"learner","subconcept_id":"C1","score":8,"successful":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record attempt: status=%d body=%s", rec.Code, rec.Body.String())
	}

	// the cached report from before the write must not be served
	after := programReport(t, a)
	if after.Stages[0].Units[0].Subconcepts[0].HighestScore != 8 {
		t.Fatalf("stale report after write: %+v", after.Stages[0].Units[0].Subconcepts[0])
	}
	if after.ScoreDistribution["0-20"] != 1 {
		t.Fatalf("distribution: %v", after.ScoreDistribution)
	}
	if after.CompletedUnits != 0 {
		t.Fatalf("unit completed after one of two subconcepts")
	}

	rec = serve(t, a, http.MethodPost, "/progress/attempts", `{"user_id":"learner","subconcept_id":"C2","score":10,"successful":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record attempt: status=%d body=%s", rec.Code, rec.Body.String())
	}
	final := programReport(t, a)
	if final.CompletedUnits != 1 || final.CompletedStages != 1 || !final.Stages[1].Enabled {
		t.Fatalf("completion not reflected: units=%d stages=%d enabled=%v", final.CompletedUnits, final.CompletedStages, final.Stages[1].Enabled)
	}
}

func TestUnknownProgramIsNotFound(t *testing.T) {
	a := newSQLiteApp(t)
	rec := serve(t, a, http.MethodGet, "/report/program/learner/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=404 got=%d body=%s", rec.Code, rec.Body.String())
	}
}
