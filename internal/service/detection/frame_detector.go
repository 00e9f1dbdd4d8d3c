package detection

import (
	"yolonode/internal/dto"
	"yolonode/internal/logger"
	"yolonode/internal/model"
	"yolonode/internal/service/overlay"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Backend turns an image into raw detections.
type Backend interface {
	Detect(img gocv.Mat) ([]dto.RawDetection, error)
	Label(classID int) string
}

// Publisher emits one detection batch on the output topic.
type Publisher interface {
	Publish(batch *model.BoundingBoxes) error
}

// Display shows an annotated frame.
type Display interface {
	Show(frameID string, img gocv.Mat) error
}

// FrameDetector runs the per-frame pipeline: decode, detect, publish, display.
// It keeps no state between frames.
type FrameDetector struct {
	backend   Backend
	publisher Publisher
	display   Display
	painter   *overlay.Painter
	logger    *logger.Logger
}

// NewFrameDetector wires the collaborators. None of them change afterwards.
func NewFrameDetector(backend Backend, publisher Publisher, display Display, painter *overlay.Painter, logger *logger.Logger) *FrameDetector {
	return &FrameDetector{
		backend:   backend,
		publisher: publisher,
		display:   display,
		painter:   painter,
		logger:    logger,
	}
}

// OnFrame processes a single frame. Exactly one batch carrying the frame's
// header is published for every frame that decodes.
//
// A *DecodeError or *BackendError means nothing was published. A publish
// failure is returned after the display has run. Display failures are
// logged and never returned.
func (d *FrameDetector) OnFrame(frame *model.Frame) error {
	img, err := decode(frame)
	if err != nil {
		return err
	}
	defer img.Close()

	raw, err := d.backend.Detect(img)
	if err != nil {
		return &BackendError{Err: err}
	}

	batch := model.NewBoundingBoxes(frame.Header, len(raw))
	for _, r := range raw {
		batch.BoundingBoxes = append(batch.BoundingBoxes, d.toBoundingBox(r))
	}

	if err := d.painter.DrawAll(&img, batch.BoundingBoxes); err != nil {
		d.logger.Warning("Overlay for frame %s incomplete: %v", frame.Header.FrameID, err)
	}

	publishErr := d.publisher.Publish(batch)
	if publishErr != nil {
		d.logger.Error("Failed to publish %d box(es) for frame %s: %v", len(batch.BoundingBoxes), frame.Header.FrameID, publishErr)
		publishErr = errors.Wrapf(publishErr, "publish frame %s", frame.Header.FrameID)
	}

	if err := d.display.Show(frame.Header.FrameID, img); err != nil {
		d.logger.Warning("%v", &DisplayError{Err: err})
	}

	return publishErr
}

func (d *FrameDetector) toBoundingBox(r dto.RawDetection) model.BoundingBox {
	return model.BoundingBox{
		Class:       d.backend.Label(r.ClassID),
		XMin:        int(r.X1),
		YMin:        int(r.Y1),
		XMax:        int(r.X2),
		YMax:        int(r.Y2),
		Probability: float64(r.Confidence),
	}
}

func decode(frame *model.Frame) (gocv.Mat, error) {
	if len(frame.Data) == 0 {
		return gocv.Mat{}, &DecodeError{FrameID: frame.Header.FrameID, Err: errors.New("empty payload")}
	}

	img, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, &DecodeError{FrameID: frame.Header.FrameID, Err: err}
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, &DecodeError{FrameID: frame.Header.FrameID, Err: errors.Errorf("not a %s image", formatOrUnknown(frame.Format))}
	}
	return img, nil
}

func formatOrUnknown(format string) string {
	if format == "" {
		return "compressed"
	}
	return format
}
