package route

import (
	"net/http"
	"yolonode/internal/config"
	"yolonode/internal/handler"
	"yolonode/internal/logger"
	"yolonode/internal/middleware"
	"yolonode/internal/service"
	"yolonode/internal/service/websocket"
)

// TopicPrefix is the URL prefix under which topics are served.
const TopicPrefix = "/topics"

// SetupRoutes registers the topic, ingress, viewer, stats and log endpoints
// and wraps the mux with the authentication middleware. viewers may be nil
// when frames are not shown in the browser.
func SetupRoutes(manager *service.Manager, topic, viewers *websocket.HubService, cfg *config.Config, appLogger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Topics
	mux.HandleFunc(TopicPrefix+cfg.ImageTopic, handler.TopicIngressHandler(cfg.ImageTopic, manager, appLogger))
	mux.HandleFunc(TopicPrefix+cfg.BBoxTopic, handler.SubscribeHandler(topic, appLogger))

	// API endpoints
	mux.HandleFunc("/api/frames", handler.UploadFrameHandler(manager, appLogger))
	mux.HandleFunc("/api/stats", handler.StatsHandler(manager))
	if viewers != nil {
		mux.HandleFunc("/api/view", handler.SubscribeHandler(viewers, appLogger))
	}
	mux.HandleFunc("/healthz", handler.HealthHandler)

	// Log endpoints
	for level, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(cfg.LogDirectory, file))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(appLogger, file))
	}

	return middleware.AuthMiddleware(cfg.AuthToken, mux)
}
