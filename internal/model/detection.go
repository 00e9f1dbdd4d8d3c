package model

// BoundingBox represents one detected object in a frame.
type BoundingBox struct {
	Class       string  `json:"class" msgpack:"class"`
	XMin        int     `json:"xmin" msgpack:"xmin"`
	YMin        int     `json:"ymin" msgpack:"ymin"`
	XMax        int     `json:"xmax" msgpack:"xmax"`
	YMax        int     `json:"ymax" msgpack:"ymax"`
	Probability float64 `json:"probability" msgpack:"probability"`
}

// BoundingBoxes is every detection produced from a single frame,
// tagged with that frame's header.
type BoundingBoxes struct {
	Header        Header        `json:"header" msgpack:"header"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes" msgpack:"bounding_boxes"`
}

// NewBoundingBoxes returns an empty batch for the given header.
// BoundingBoxes is never nil so an empty batch encodes as [].
func NewBoundingBoxes(header Header, capacity int) *BoundingBoxes {
	return &BoundingBoxes{
		Header:        header,
		BoundingBoxes: make([]BoundingBox, 0, capacity),
	}
}
