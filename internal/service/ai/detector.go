package ai

import (
	"image"
	"image/color"
	"os"
	"sync"
	"yolonode/internal/config"
	"yolonode/internal/dto"
	"yolonode/internal/logger"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// boxChannels is the number of leading box values (cx, cy, w, h) in every
// YOLOv8 prediction, followed by one score per class.
const boxChannels = 4

// DetectorService runs a YOLOv8-style ONNX model on the CPU.
// The network is loaded once and only read afterwards.
type DetectorService struct {
	net        gocv.Net
	labels     Labels
	modelPath  string
	labelsPath string
	inputSize  image.Point
	confThresh float32
	nmsThresh  float32
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewDetectorService loads the model and its label table. Both must exist.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		modelPath:  cfg.ModelPath,
		labelsPath: cfg.LabelsPath,
		inputSize:  image.Pt(cfg.InputSize, cfg.InputSize),
		confThresh: cfg.ConfidenceThreshold,
		nmsThresh:  cfg.NMSThreshold,
		logger:     logger,
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	service.labels = labels

	if err := service.initializeNet(); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return errors.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNetFromONNX(s.modelPath)
	if net.Empty() {
		return errors.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return errors.New("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized from %s with %d labels", s.modelPath, len(s.labels))
	return nil
}

// Detect runs the network on a BGR image and returns the detections in the
// order the model ranks them (highest confidence first).
func (s *DetectorService) Detect(img gocv.Mat) ([]dto.RawDetection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net.Empty() {
		return nil, errors.New("detection network not initialized")
	}
	if img.Empty() {
		return nil, errors.New("empty image")
	}

	lb := newLetterbox(img.Cols(), img.Rows(), s.inputSize.X)
	input := lb.apply(img)
	defer input.Close()

	blob := gocv.BlobFromImage(input, 1.0/255.0, s.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, errors.New("network returned no output")
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read network output")
	}

	channels, anchors, transposed, err := outputLayout(output.Size())
	if err != nil {
		return nil, err
	}

	candidates := decodePredictions(data, channels, anchors, transposed, lb, s.confThresh)
	if len(candidates) == 0 {
		return []dto.RawDetection{}, nil
	}

	boxes, scores := nmsInputs(candidates, lb.width, lb.height)
	indices := gocv.NMSBoxes(boxes, scores, s.confThresh, s.nmsThresh)

	results := make([]dto.RawDetection, 0, len(indices))
	for _, idx := range indices {
		results = append(results, candidates[idx])
	}
	s.logger.Debug("Detected %d object(s) in %dx%d image", len(results), img.Cols(), img.Rows())

	return results, nil
}

// Label maps a class ID to its name.
func (s *DetectorService) Label(classID int) string {
	return s.labels.Name(classID)
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}

// outputLayout reads the shape of a YOLOv8 output blob: [1, 4+nc, anchors],
// or the transposed [1, anchors, 4+nc] some exporters produce.
func outputLayout(sizes []int) (channels, anchors int, transposed bool, err error) {
	if len(sizes) != 3 || sizes[0] != 1 {
		return 0, 0, false, errors.Errorf("unexpected output shape %v", sizes)
	}
	channels, anchors = sizes[1], sizes[2]
	if channels > anchors {
		channels, anchors, transposed = anchors, channels, true
	}
	if channels <= boxChannels {
		return 0, 0, false, errors.Errorf("output shape %v has no class scores", sizes)
	}
	return channels, anchors, transposed, nil
}

// letterbox maps an image onto the square model input: scaled to fit while
// keeping its aspect ratio and centred on grey padding.
type letterbox struct {
	width, height int // source image
	size          int // model input side
	gain          float32
	padX, padY    int
	scaledW       int
	scaledH       int
}

const letterboxPad = 114

func newLetterbox(width, height, size int) letterbox {
	gain := float32(size) / float32(width)
	if g := float32(size) / float32(height); g < gain {
		gain = g
	}
	scaledW := int(float32(width)*gain + 0.5)
	scaledH := int(float32(height)*gain + 0.5)
	return letterbox{
		width:   width,
		height:  height,
		size:    size,
		gain:    gain,
		padX:    (size - scaledW) / 2,
		padY:    (size - scaledH) / 2,
		scaledW: scaledW,
		scaledH: scaledH,
	}
}

// apply returns the padded model input. The caller closes it.
func (lb letterbox) apply(img gocv.Mat) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(lb.scaledW, lb.scaledH), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMat()
	grey := color.RGBA{R: letterboxPad, G: letterboxPad, B: letterboxPad, A: 0}
	gocv.CopyMakeBorder(resized, &padded,
		lb.padY, lb.size-lb.scaledH-lb.padY,
		lb.padX, lb.size-lb.scaledW-lb.padX,
		gocv.BorderConstant, grey)
	return padded
}

// toImage converts model input coordinates back to source image pixels.
func (lb letterbox) toImage(x, y float32) (float32, float32) {
	return (x - float32(lb.padX)) / lb.gain, (y - float32(lb.padY)) / lb.gain
}

// nmsInputs prepares candidates for suppression. Boxes are shifted apart
// per class so only boxes of the same class suppress each other.
func nmsInputs(candidates []dto.RawDetection, imgW, imgH int) ([]image.Rectangle, []float32) {
	offset := imgW
	if imgH > offset {
		offset = imgH
	}
	offset++

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		shift := c.ClassID * offset
		boxes[i] = image.Rect(int(c.X1)+shift, int(c.Y1)+shift, int(c.X2)+shift, int(c.Y2)+shift)
		scores[i] = c.Confidence
	}
	return boxes, scores
}

// decodePredictions turns raw predictions into corner boxes in image
// pixels, keeping the best class of every anchor scoring at least thresh.
func decodePredictions(data []float32, channels, anchors int, transposed bool, lb letterbox, thresh float32) []dto.RawDetection {
	at := func(c, a int) float32 {
		if transposed {
			return data[a*channels+c]
		}
		return data[c*anchors+a]
	}

	var detections []dto.RawDetection
	for a := 0; a < anchors; a++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := boxChannels; c < channels; c++ {
			if score := at(c, a); score > maxScore {
				maxScore = score
				maxClassID = c - boxChannels
			}
		}

		if maxScore < thresh {
			continue
		}

		cx, cy := at(0, a), at(1, a)
		w, h := at(2, a), at(3, a)
		x1, y1 := lb.toImage(cx-w/2, cy-h/2)
		x2, y2 := lb.toImage(cx+w/2, cy+h/2)
		imgW, imgH := float32(lb.width), float32(lb.height)

		detections = append(detections, dto.RawDetection{
			ClassID:    maxClassID,
			Confidence: clamp(maxScore, 0, 1),
			X1:         clamp(x1, 0, imgW),
			Y1:         clamp(y1, 0, imgH),
			X2:         clamp(x2, 0, imgW),
			Y2:         clamp(y2, 0, imgH),
		})
	}
	return detections
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
