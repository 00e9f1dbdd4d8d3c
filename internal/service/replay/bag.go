package replay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"strings"
	"yolonode/internal/model"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
)

// BagSource replays sensor_msgs/CompressedImage messages of one topic from
// a rosbag. Frames keep the header they were recorded with.
type BagSource struct {
	path  string
	topic string
}

// NewBagSource creates a source over topic in the bag at path.
func NewBagSource(path, topic string) *BagSource {
	return &BagSource{path: path, topic: topic}
}

// Each calls fn for every message on the topic until fn fails or ctx is cancelled.
func (s *BagSource) Each(ctx context.Context, fn func(frame *model.Frame) error) error {
	rb, err := readBag(s.path)
	if err != nil {
		return err
	}

	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == s.topic },
		false,
	); err != nil {
		return errors.Wrap(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[topicKey(s.topic)]
	if msgs == nil {
		return errors.Errorf("no messages for topic %s", s.topic)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := msgs.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		frame, err := parseBagMessage(line)
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

func readBag(path string) (*rosbag.RosBag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open input file")
	}
	defer f.Close()

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrap(err, "unable to read ros bag")
	}
	return rb, nil
}

// topicKey is the name the bag parser files a topic's messages under.
func topicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

type bagMessage struct {
	Meta struct {
		Secs  uint32 `json:"secs"`
		Nsecs uint32 `json:"nsecs"`
	} `json:"meta"`
	Data struct {
		Header model.Header    `json:"header"`
		Format string          `json:"format"`
		Data   json.RawMessage `json:"data"`
	} `json:"data"`
}

// parseBagMessage converts one parsed bag line into a frame. The image bytes
// appear either as a list of numbers or as a base64 string. A header
// without a stamp takes the record time of the message.
func parseBagMessage(line []byte) (*model.Frame, error) {
	var msg bagMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, errors.Wrap(err, "invalid bag message")
	}

	data, err := imageBytes(msg.Data.Data)
	if err != nil {
		return nil, err
	}

	header := msg.Data.Header
	if header.Stamp == (model.Stamp{}) {
		header.Stamp = model.Stamp{Secs: msg.Meta.Secs, Nsecs: msg.Meta.Nsecs}
	}
	return &model.Frame{Header: header, Format: msg.Data.Format, Data: data}, nil
}

func imageBytes(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		data, err := base64.StdEncoding.DecodeString(encoded)
		return data, errors.Wrap(err, "invalid base64 image data")
	}

	var values []int
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, errors.Wrap(err, "invalid image data")
	}
	data := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("image byte %d out of range: %d", i, v)
		}
		data[i] = byte(v)
	}
	return data, nil
}
