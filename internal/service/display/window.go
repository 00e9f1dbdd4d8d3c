package display

import (
	"os"
	"runtime"
	"yolonode/internal/logger"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// screen is the part of *gocv.Window a sink drives.
type screen interface {
	IMShow(img gocv.Mat) error
	WaitKey(delay int) int
	Close() error
}

// Window shows frames in a native OpenCV window. The window is created on
// the first Show, so it belongs to the thread that drives it.
type Window struct {
	name   string
	open   func(name string) screen
	window screen
	failed error
	logger *logger.Logger
}

// NewWindow returns a window sink with the given title.
func NewWindow(name string, logger *logger.Logger) *Window {
	return &Window{
		name:   name,
		open:   func(name string) screen { return gocv.NewWindow(name) },
		logger: logger,
	}
}

// Show draws img and pumps the window's event loop once.
func (w *Window) Show(frameID string, img gocv.Mat) (err error) {
	if w.failed != nil {
		return w.failed
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("window %q: %v", w.name, r)
		}
	}()

	if w.window == nil {
		if err := available(); err != nil {
			w.failed = err
			w.logger.Warning("Display window %q disabled: %v", w.name, err)
			return err
		}
		w.window = w.open(w.name)
		w.logger.Info("Display window %q opened", w.name)
	}

	if img.Empty() {
		return errors.Errorf("empty frame %s", frameID)
	}
	if err := w.window.IMShow(img); err != nil {
		return errors.Wrapf(err, "window %q: frame %s", w.name, frameID)
	}
	w.window.WaitKey(1)
	return nil
}

// Close destroys the window if it was opened.
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}

func available() error {
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return errors.New("no graphical display available")
	}
	return nil
}
