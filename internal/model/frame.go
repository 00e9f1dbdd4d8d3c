package model

import "time"

// Stamp is a wall-clock time split into seconds and nanoseconds.
type Stamp struct {
	Secs  uint32 `json:"secs" msgpack:"secs"`
	Nsecs uint32 `json:"nsecs" msgpack:"nsecs"`
}

// NewStamp converts t into a Stamp.
func NewStamp(t time.Time) Stamp {
	return Stamp{
		Secs:  uint32(t.Unix()),
		Nsecs: uint32(t.Nanosecond()),
	}
}

// Time returns the stamp as a time.Time.
func (s Stamp) Time() time.Time {
	return time.Unix(int64(s.Secs), int64(s.Nsecs))
}

// Header is the correlation token attached to a frame by its source.
// It is copied as-is onto every message derived from the frame.
type Header struct {
	Seq     uint32 `json:"seq" msgpack:"seq"`
	Stamp   Stamp  `json:"stamp" msgpack:"stamp"`
	FrameID string `json:"frame_id" msgpack:"frame_id"`
}

// Frame represents one compressed image from the camera feed.
type Frame struct {
	Header Header `json:"header" msgpack:"header"`
	Format string `json:"format" msgpack:"format"` // e.g. "jpeg"
	Data   []byte `json:"data" msgpack:"data"`
}
