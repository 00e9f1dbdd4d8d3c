package display

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Broadcaster delivers a message to every connected viewer.
type Broadcaster interface {
	Broadcast(messageType int, data []byte) error
}

// ViewerMessage is the payload sent to browser viewers.
type ViewerMessage struct {
	Camera string `json:"camera"`
	Image  string `json:"image"`
}

// Web JPEG-encodes frames and sends them to the viewer websockets.
type Web struct {
	viewers Broadcaster
}

// NewWeb returns a web sink broadcasting to viewers.
func NewWeb(viewers Broadcaster) *Web {
	return &Web{viewers: viewers}
}

// Show encodes img and broadcasts it tagged with frameID.
func (w *Web) Show(frameID string, img gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return errors.Wrap(err, "failed to encode frame")
	}
	defer buf.Close()

	msg, err := json.Marshal(ViewerMessage{
		Camera: frameID,
		Image:  base64.StdEncoding.EncodeToString(buf.GetBytes()),
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode viewer message")
	}
	return w.viewers.Broadcast(websocket.TextMessage, msg)
}

// Close does nothing; the viewer hub is owned by the app.
func (w *Web) Close() error { return nil }
