package display

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"yolonode/internal/config"
	"yolonode/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gocv.io/x/gocv"
)

type recordingViewers struct {
	types    []int
	messages [][]byte
}

func (r *recordingViewers) Broadcast(messageType int, data []byte) error {
	r.types = append(r.types, messageType)
	r.messages = append(r.messages, data)
	return nil
}

func TestNewSelectsMode(t *testing.T) {
	viewers := &recordingViewers{}

	sink, err := New(&config.Config{DisplayMode: config.DisplayNone}, nil, logger.NewNop())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink, test.ShouldHaveSameTypeAs, None{})

	sink, err = New(&config.Config{DisplayMode: config.DisplayWeb}, viewers, logger.NewNop())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink, test.ShouldHaveSameTypeAs, &Web{})

	sink, err = New(&config.Config{DisplayMode: config.DisplayWindow, WindowName: "YOLO Inference"}, nil, logger.NewNop())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink, test.ShouldHaveSameTypeAs, &Window{})

	_, err = New(&config.Config{DisplayMode: config.DisplayWeb}, nil, logger.NewNop())
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(&config.Config{DisplayMode: "tv"}, nil, logger.NewNop())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWebShowBroadcastsJPEG(t *testing.T) {
	viewers := &recordingViewers{}
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	test.That(t, NewWeb(viewers).Show("front", img), test.ShouldBeNil)
	test.That(t, viewers.types, test.ShouldResemble, []int{websocket.TextMessage})

	var msg ViewerMessage
	test.That(t, json.Unmarshal(viewers.messages[0], &msg), test.ShouldBeNil)
	test.That(t, msg.Camera, test.ShouldEqual, "front")

	data, err := base64.StdEncoding.DecodeString(msg.Image)
	test.That(t, err, test.ShouldBeNil)
	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	test.That(t, err, test.ShouldBeNil)
	defer decoded.Close()
	test.That(t, decoded.Cols(), test.ShouldEqual, 64)
	test.That(t, decoded.Rows(), test.ShouldEqual, 48)
}

func TestWindowWithoutDisplayReportsError(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	if available() == nil {
		t.Skip("platform does not need a display server")
	}

	img := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer img.Close()

	w := NewWindow("YOLO Inference", logger.NewNop())
	err := w.Show("front", img)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, w.Show("front", img), test.ShouldEqual, err)
	test.That(t, w.Close(), test.ShouldBeNil)
}

type fakeScreen struct {
	showErr error
	shown   int
	keys    int
	closed  bool
}

func (f *fakeScreen) IMShow(img gocv.Mat) error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shown++
	return nil
}

func (f *fakeScreen) WaitKey(delay int) int {
	f.keys++
	return -1
}

func (f *fakeScreen) Close() error {
	f.closed = true
	return nil
}

func TestWindowReportsShowFailure(t *testing.T) {
	t.Setenv("DISPLAY", ":0")

	img := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer img.Close()

	fake := &fakeScreen{showErr: errors.New("imshow failed")}
	w := NewWindow("YOLO Inference", logger.NewNop())
	w.open = func(string) screen { return fake }

	err := w.Show("front", img)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "imshow failed")
	test.That(t, fake.keys, test.ShouldEqual, 0)

	fake.showErr = nil
	test.That(t, w.Show("front", img), test.ShouldBeNil)
	test.That(t, fake.shown, test.ShouldEqual, 1)
	test.That(t, fake.keys, test.ShouldEqual, 1)

	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, fake.closed, test.ShouldBeTrue)
}

func TestNone(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	test.That(t, None{}.Show("front", img), test.ShouldBeNil)
	test.That(t, None{}.Close(), test.ShouldBeNil)
}
