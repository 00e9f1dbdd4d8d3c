package model

import (
	"encoding/json"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestStamp(t *testing.T) {
	now := time.Unix(1700000000, 123456789)
	stamp := NewStamp(now)
	test.That(t, stamp, test.ShouldResemble, Stamp{Secs: 1700000000, Nsecs: 123456789})
	test.That(t, stamp.Time().Equal(now), test.ShouldBeTrue)
}

func TestEmptyBatchEncodesEmptyList(t *testing.T) {
	header := Header{Seq: 4, Stamp: Stamp{Secs: 1, Nsecs: 2}, FrameID: "main_camera"}
	batch := NewBoundingBoxes(header, 0)
	test.That(t, batch.Header, test.ShouldResemble, header)

	data, err := json.Marshal(batch)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual,
		`{"header":{"seq":4,"stamp":{"secs":1,"nsecs":2},"frame_id":"main_camera"},"bounding_boxes":[]}`)
}
