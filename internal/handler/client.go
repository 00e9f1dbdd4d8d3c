package handler

import (
	"net/http"
	"yolonode/internal/logger"
	"yolonode/internal/model"
	hub "yolonode/internal/service/websocket"

	"github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TopicIngressHandler receives frames on the image topic. Binary messages
// are bare compressed images; text messages are JSON frames with a header.
func TopicIngressHandler(topic string, frames FrameSink, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		source := sourceName(r)
		logger.Info("Publisher %s connected to %s", source, topic)

		for {
			messageType, data, err := connection.ReadMessage()
			if err != nil {
				logDisconnect(logger, "Publisher "+source, err)
				return
			}

			switch messageType {
			case websocket.BinaryMessage:
				frames.HandleCameraImage(data, source)
			case websocket.TextMessage:
				var frame model.Frame
				if err := frameCodec.Unmarshal(data, &frame); err != nil {
					logger.Warning("Dropping malformed message on %s: %v", topic, err)
					continue
				}
				frames.HandleFrame(&frame)
			}
		}
	}
}

// SubscribeHandler registers websocket clients with a hub so they receive
// every broadcast message. It serves both the output topic and the viewer.
func SubscribeHandler(h *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		connection.SetReadLimit(512)

		client, err := h.Register(connection)
		if err != nil {
			logger.Warning("Subscription to %s refused: %v", h.Name(), err)
			connection.Close()
			return
		}
		defer h.Unregister(client)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				logDisconnect(logger, "Subscriber "+client.ID.String(), err)
				return
			}
		}
	}
}

func logDisconnect(logger *logger.Logger, who string, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Info("%s disconnected normally", who)
	} else {
		logger.Warning("%s disconnected with error: %v", who, err)
	}
}
