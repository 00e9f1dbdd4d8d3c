package dto

// RawDetection is one object returned by the detection backend, before it is
// turned into a wire message. Box corners are in source image pixels.
type RawDetection struct {
	ClassID    int
	Confidence float32
	X1         float32
	Y1         float32
	X2         float32
	Y2         float32
}
