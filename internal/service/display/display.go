package display

import (
	"yolonode/internal/config"
	"yolonode/internal/logger"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Sink shows annotated frames somewhere.
type Sink interface {
	Show(frameID string, img gocv.Mat) error
	Close() error
}

// New returns the sink selected by cfg.DisplayMode. viewers is only used by
// the web mode.
func New(cfg *config.Config, viewers Broadcaster, logger *logger.Logger) (Sink, error) {
	switch cfg.DisplayMode {
	case config.DisplayWindow:
		return NewWindow(cfg.WindowName, logger), nil
	case config.DisplayWeb:
		if viewers == nil {
			return nil, errors.New("web display needs a viewer hub")
		}
		return NewWeb(viewers), nil
	case config.DisplayNone:
		return None{}, nil
	default:
		return nil, errors.Errorf("unknown display mode %q", cfg.DisplayMode)
	}
}

// None discards every frame.
type None struct{}

// Show does nothing.
func (None) Show(string, gocv.Mat) error { return nil }

// Close does nothing.
func (None) Close() error { return nil }
