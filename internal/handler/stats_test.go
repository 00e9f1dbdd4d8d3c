package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"yolonode/internal/config"
	"yolonode/internal/logger"
	"yolonode/internal/service"

	"go.viam.com/test"
)

type fixedStats service.Stats

func (s fixedStats) Stats() service.Stats { return service.Stats(s) }

func TestStatsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	StatsHandler(fixedStats{Received: 3, Dropped: 1})(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	var got service.Stats
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &got), test.ShouldBeNil)
	test.That(t, got.Received, test.ShouldEqual, uint64(3))
	test.That(t, got.Dropped, test.ShouldEqual, uint64(1))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	test.That(t, rec.Body.String(), test.ShouldEqual, "ok")
}

func TestLogsHandlers(t *testing.T) {
	l, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), LogLevel: "info"})
	test.That(t, err, test.ShouldBeNil)
	defer l.Close()

	l.Warning("queue full")

	rec := httptest.NewRecorder()
	ShowLogsHandler(l.Dir(), logger.WarningFile)(rec, httptest.NewRequest(http.MethodGet, "/logs/warning", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, rec.Body.String(), test.ShouldContainSubstring, "queue full")

	rec = httptest.NewRecorder()
	ShowLogsHandler(filepath.Join(l.Dir(), "missing"), logger.ErrorFile)(rec, httptest.NewRequest(http.MethodGet, "/logs/error", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusNotFound)

	rec = httptest.NewRecorder()
	ClearLogsHandler(l, logger.WarningFile)(rec, httptest.NewRequest(http.MethodGet, "/logs/warning/clear", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusMethodNotAllowed)

	rec = httptest.NewRecorder()
	ClearLogsHandler(l, logger.WarningFile)(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusNoContent)

	data, err := os.ReadFile(filepath.Join(l.Dir(), logger.WarningFile))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldNotContainSubstring, "queue full")
}
