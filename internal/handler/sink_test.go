package handler

import (
	"sync"
	"testing"
	"time"
	"yolonode/internal/model"
)

type cameraImage struct {
	source string
	data   []byte
}

type recordingSink struct {
	mu     sync.Mutex
	frames []*model.Frame
	images []cameraImage
	full   bool
}

func (s *recordingSink) HandleFrame(frame *model.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *recordingSink) HandleCameraImage(image []byte, source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.images = append(s.images, cameraImage{source: source, data: append([]byte(nil), image...)})
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) + len(s.images)
}

func waitForCount(t *testing.T, s *recordingSink, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d frames, have %d", n, s.count())
		}
		time.Sleep(2 * time.Millisecond)
	}
}
