package publisher

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"
	"yolonode/internal/codec"
	"yolonode/internal/logger"
	"yolonode/internal/model"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Broadcaster delivers an encoded message to the subscribers of a topic.
type Broadcaster interface {
	Name() string
	Broadcast(messageType int, data []byte) error
}

// TopicPublisher encodes detection batches and broadcasts them on a topic.
type TopicPublisher struct {
	topic     Broadcaster
	codec     codec.Codec
	logger    *logger.Logger
	published atomic.Uint64
}

// NewTopicPublisher creates a publisher writing to topic with c.
func NewTopicPublisher(topic Broadcaster, c codec.Codec, logger *logger.Logger) *TopicPublisher {
	return &TopicPublisher{topic: topic, codec: c, logger: logger}
}

// Publish encodes the batch and hands it to the topic.
func (p *TopicPublisher) Publish(batch *model.BoundingBoxes) error {
	data, err := p.codec.Marshal(batch)
	if err != nil {
		return errors.Wrapf(err, "encode batch for %s", p.topic.Name())
	}

	messageType := websocket.TextMessage
	if p.codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	if err := p.topic.Broadcast(messageType, data); err != nil {
		return errors.Wrapf(err, "broadcast on %s", p.topic.Name())
	}

	p.published.Add(1)
	p.logger.Debug("Published %d box(es) for frame %s seq %d on %s",
		len(batch.BoundingBoxes), batch.Header.FrameID, batch.Header.Seq, p.topic.Name())
	return nil
}

// Published returns the number of batches delivered to the topic.
func (p *TopicPublisher) Published() uint64 {
	return p.published.Load()
}

// LinePublisher writes every batch as one JSON line.
type LinePublisher struct {
	mu        sync.Mutex
	w         *bufio.Writer
	codec     codec.Codec
	published uint64
}

// NewLinePublisher creates a publisher writing JSON lines to w.
func NewLinePublisher(w io.Writer) *LinePublisher {
	return &LinePublisher{w: bufio.NewWriter(w), codec: codec.NewJSON()}
}

// Publish writes the batch and flushes it.
func (p *LinePublisher) Publish(batch *model.BoundingBoxes) error {
	data, err := p.codec.Marshal(batch)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "write batch")
	}
	if err := p.w.Flush(); err != nil {
		return errors.Wrap(err, "flush batch")
	}
	p.published++
	return nil
}

// Published returns the number of batches written.
func (p *LinePublisher) Published() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}
