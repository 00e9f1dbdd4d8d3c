package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"yolonode/internal/logger"
	hub "yolonode/internal/service/websocket"

	"github.com/gorilla/websocket"
	"go.viam.com/test"
)

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func TestTopicIngress(t *testing.T) {
	sink := &recordingSink{}
	server := httptest.NewServer(TopicIngressHandler("/main_camera/image_raw/compressed", sink, logger.NewNop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/?camera=front"), nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()

	test.That(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xFF, 0xD8, 0xFF, 0xD9}), test.ShouldBeNil)
	test.That(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")), test.ShouldBeNil)
	test.That(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"header":{"seq":5,"frame_id":"main_camera"},"format":"jpeg","data":"/9j/"}`)), test.ShouldBeNil)

	waitForCount(t, sink, 2)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	test.That(t, sink.images, test.ShouldHaveLength, 1)
	test.That(t, sink.images[0].source, test.ShouldEqual, "front")
	test.That(t, sink.frames, test.ShouldHaveLength, 1)
	test.That(t, sink.frames[0].Header.Seq, test.ShouldEqual, uint32(5))
	test.That(t, sink.frames[0].Data, test.ShouldResemble, []byte{0xFF, 0xD8, 0xFF})
}

func TestSubscribeReceivesBroadcasts(t *testing.T) {
	h := hub.NewHubService("/detected_bboxes", logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	server := httptest.NewServer(SubscribeHandler(h, logger.NewNop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, "/"), nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	test.That(t, h.ClientCount(), test.ShouldEqual, 1)

	test.That(t, h.Broadcast(websocket.TextMessage, []byte(`{"bounding_boxes":[]}`)), test.ShouldBeNil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, `{"bounding_boxes":[]}`)
}
