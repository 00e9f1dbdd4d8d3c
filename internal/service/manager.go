package service

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"yolonode/internal/config"
	"yolonode/internal/logger"
	"yolonode/internal/model"
	"yolonode/internal/service/detection"

	"github.com/pkg/errors"
)

// FrameHandler processes one frame at a time.
type FrameHandler interface {
	OnFrame(frame *model.Frame) error
}

// Stats is a snapshot of the Manager counters.
type Stats struct {
	Received      uint64    `json:"received"`
	Processed     uint64    `json:"processed"`
	Published     uint64    `json:"published"`
	Dropped       uint64    `json:"dropped"`
	DecodeErrors  uint64    `json:"decode_errors"`
	PublishErrors uint64    `json:"publish_errors"`
	Queued        int       `json:"queued"`
	LastFrame     time.Time `json:"last_frame"`
}

// Manager queues incoming frames and feeds them to a single worker, so the
// frame handler never runs concurrently with itself.
type Manager struct {
	detector FrameHandler
	logger   *logger.Logger
	topic    string

	processingQueue chan *model.Frame
	closers         []io.Closer // closed by the worker when it stops

	sequenceMu sync.Mutex
	sequences  map[string]uint32 // next seq per source without its own header

	received      atomic.Uint64
	processed     atomic.Uint64
	published     atomic.Uint64
	dropped       atomic.Uint64
	decodeErrors  atomic.Uint64
	publishErrors atomic.Uint64
	lastFrame     atomic.Int64
}

// NewManager creates a Manager with a queue of cfg.QueueSize frames.
func NewManager(detector FrameHandler, cfg *config.Config, logger *logger.Logger) *Manager {
	return &Manager{
		detector:        detector,
		logger:          logger,
		topic:           cfg.ImageTopic,
		processingQueue: make(chan *model.Frame, cfg.QueueSize),
		sequences:       make(map[string]uint32),
	}
}

// HandleFrame queues a frame without blocking. It reports false when the
// queue was full and the frame was dropped.
func (m *Manager) HandleFrame(frame *model.Frame) bool {
	m.received.Add(1)

	select {
	case m.processingQueue <- frame:
		return true
	default:
		m.dropped.Add(1)
		m.logger.Warning("Processing queue full on %s - dropping frame %s seq %d", m.topic, frame.Header.FrameID, frame.Header.Seq)
		return false
	}
}

// HandleCameraImage wraps a bare compressed image from source into a frame
// with a fresh header and queues it.
func (m *Manager) HandleCameraImage(image []byte, source string) bool {
	return m.HandleFrame(&model.Frame{
		Header: m.NextHeader(source),
		Format: "jpeg",
		Data:   image,
	})
}

// NextHeader assigns the next sequence number of source, stamped now.
func (m *Manager) NextHeader(source string) model.Header {
	m.sequenceMu.Lock()
	seq := m.sequences[source]
	m.sequences[source] = seq + 1
	m.sequenceMu.Unlock()

	return model.Header{
		Seq:     seq,
		Stamp:   model.NewStamp(time.Now()),
		FrameID: source,
	}
}

// Run drains the queue until ctx is cancelled. A backend failure stops the
// worker and is returned; every other per-frame error is logged.
func (m *Manager) Run(ctx context.Context) error {
	// The display window must always be driven from the same OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer m.closeAll()

	m.logger.Info("Processing worker started on %s", m.topic)
	defer m.logger.Info("Processing worker stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-m.processingQueue:
			if err := m.process(frame); err != nil {
				return err
			}
		}
	}
}

// CloseOnStop registers c to be closed by the worker thread when Run
// returns. It must be called before Run.
func (m *Manager) CloseOnStop(c io.Closer) {
	m.closers = append(m.closers, c)
}

func (m *Manager) closeAll() {
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			m.logger.Warning("Failed to close %T: %v", c, err)
		}
	}
	m.closers = nil
}

func (m *Manager) process(frame *model.Frame) error {
	err := m.detector.OnFrame(frame)
	m.processed.Add(1)
	m.lastFrame.Store(time.Now().UnixNano())

	var decodeErr *detection.DecodeError
	var backendErr *detection.BackendError
	switch {
	case err == nil:
		m.published.Add(1)
	case errors.As(err, &backendErr):
		m.logger.Error("Detection backend failed on frame %s: %v", frame.Header.FrameID, err)
		return err
	case errors.As(err, &decodeErr):
		m.decodeErrors.Add(1)
		m.logger.Warning("Skipping frame: %v", err)
	default:
		m.publishErrors.Add(1)
		m.logger.Error("Frame %s seq %d: %v", frame.Header.FrameID, frame.Header.Seq, err)
	}
	return nil
}

// Stats returns the current counters.
func (m *Manager) Stats() Stats {
	stats := Stats{
		Received:      m.received.Load(),
		Processed:     m.processed.Load(),
		Published:     m.published.Load(),
		Dropped:       m.dropped.Load(),
		DecodeErrors:  m.decodeErrors.Load(),
		PublishErrors: m.publishErrors.Load(),
		Queued:        len(m.processingQueue),
	}
	if last := m.lastFrame.Load(); last != 0 {
		stats.LastFrame = time.Unix(0, last)
	}
	return stats
}
