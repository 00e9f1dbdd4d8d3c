package route

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"yolonode/internal/config"
	"yolonode/internal/logger"
	"yolonode/internal/service"
	"yolonode/internal/service/websocket"

	"go.viam.com/test"
)

func testRouter(t *testing.T, token string, withViewers bool) http.Handler {
	t.Helper()
	cfg := &config.Config{
		ImageTopic:   "/main_camera/image_raw/compressed",
		BBoxTopic:    "/detected_bboxes",
		QueueSize:    1,
		AuthToken:    token,
		LogDirectory: t.TempDir(),
	}
	l := logger.NewNop()
	manager := service.NewManager(nil, cfg, l)
	topic := websocket.NewHubService(cfg.BBoxTopic, l)

	var viewers *websocket.HubService
	if withViewers {
		viewers = websocket.NewHubService("viewers", l)
	}
	return SetupRoutes(manager, topic, viewers, cfg, l)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	h := testRouter(t, "", false)

	test.That(t, get(h, "/healthz").Code, test.ShouldEqual, http.StatusOK)

	stats := get(h, "/api/stats")
	test.That(t, stats.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, stats.Body.String(), test.ShouldContainSubstring, `"received":0`)

	test.That(t, get(h, "/api/frames").Code, test.ShouldEqual, http.StatusMethodNotAllowed)
	test.That(t, get(h, "/logs/info").Code, test.ShouldEqual, http.StatusNotFound)
	test.That(t, get(h, "/api/view").Code, test.ShouldEqual, http.StatusNotFound)

	// Plain HTTP on a topic is refused by the websocket upgrade.
	test.That(t, get(h, TopicPrefix+"/detected_bboxes").Code, test.ShouldEqual, http.StatusBadRequest)
	test.That(t, get(h, TopicPrefix+"/main_camera/image_raw/compressed").Code, test.ShouldEqual, http.StatusBadRequest)
}

func TestViewerRoute(t *testing.T) {
	h := testRouter(t, "", true)
	test.That(t, get(h, "/api/view").Code, test.ShouldEqual, http.StatusBadRequest)
}

func TestRoutesRequireToken(t *testing.T) {
	h := testRouter(t, "s3cret", false)

	test.That(t, get(h, "/api/stats").Code, test.ShouldEqual, http.StatusUnauthorized)
	test.That(t, get(h, "/api/stats?token=s3cret").Code, test.ShouldEqual, http.StatusOK)
	test.That(t, get(h, "/healthz").Code, test.ShouldEqual, http.StatusOK)
}
