package replay

import (
	"context"
	"yolonode/internal/logger"
	"yolonode/internal/model"
	"yolonode/internal/service/detection"

	"github.com/pkg/errors"
)

// FrameHandler processes one frame.
type FrameHandler interface {
	OnFrame(frame *model.Frame) error
}

// Summary counts what happened during a replay.
type Summary struct {
	Frames        int
	Published     int
	DecodeErrors  int
	PublishErrors int
}

// Run feeds every frame of src to handler, one at a time. Undecodable frames
// and publish failures are counted and skipped; a backend failure stops the
// replay.
func Run(ctx context.Context, src Source, handler FrameHandler, logger *logger.Logger) (Summary, error) {
	var summary Summary
	err := src.Each(ctx, func(frame *model.Frame) error {
		summary.Frames++

		err := handler.OnFrame(frame)
		var decodeErr *detection.DecodeError
		var backendErr *detection.BackendError
		switch {
		case err == nil:
			summary.Published++
		case errors.As(err, &backendErr):
			return err
		case errors.As(err, &decodeErr):
			summary.DecodeErrors++
			logger.Warning("Skipping frame: %v", err)
		default:
			summary.PublishErrors++
			logger.Error("Frame %s seq %d: %v", frame.Header.FrameID, frame.Header.Seq, err)
		}
		return nil
	})
	return summary, err
}
