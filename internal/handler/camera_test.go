package handler

import (
	"context"
	"net"
	"testing"
	"yolonode/internal/logger"

	"go.viam.com/test"
)

func TestFrameAssembler(t *testing.T) {
	a := newFrameAssembler()

	test.That(t, a.add("front", []byte{0xFF, 0xD8, 1, 2}), test.ShouldBeNil)
	test.That(t, a.add("back", []byte{0xFF, 0xD8, 9, 0xFF, 0xD9}), test.ShouldResemble, []byte{0xFF, 0xD8, 9, 0xFF, 0xD9})
	test.That(t, a.add("front", []byte{3, 0xFF, 0xD9}), test.ShouldResemble, []byte{0xFF, 0xD8, 1, 2, 3, 0xFF, 0xD9})
}

func TestFrameAssemblerRestartsOnNewHeader(t *testing.T) {
	a := newFrameAssembler()

	test.That(t, a.add("front", []byte{0xFF, 0xD8, 1}), test.ShouldBeNil)
	// The tail of the first frame was lost; a new start marker wins.
	test.That(t, a.add("front", []byte{0xFF, 0xD8, 7, 0xFF, 0xD9}), test.ShouldResemble, []byte{0xFF, 0xD8, 7, 0xFF, 0xD9})
}

func TestFrameAssemblerIgnoresOrphanFragments(t *testing.T) {
	a := newFrameAssembler()

	test.That(t, a.add("front", []byte{5, 6, 0xFF, 0xD9}), test.ShouldBeNil)
	test.That(t, a.add("front", []byte{0xFF, 0xD8, 0xFF, 0xD9}), test.ShouldResemble, []byte{0xFF, 0xD8, 0xFF, 0xD9})
}

func TestCameraName(t *testing.T) {
	names := map[string]string{"10.0.0.5": "front"}
	test.That(t, cameraName(names, "10.0.0.5"), test.ShouldEqual, "front")
	test.That(t, cameraName(names, "10.0.0.9"), test.ShouldEqual, "unknown_10.0.0.9")
}

func TestServeUDP(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	test.That(t, err, test.ShouldBeNil)

	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveUDP(ctx, conn, sink, logger.NewNop(), map[string]string{"127.0.0.1": "front"})
	}()

	sender, err := net.DialUDP("udp", nil, conn.LocalAddr().(*net.UDPAddr))
	test.That(t, err, test.ShouldBeNil)
	defer sender.Close()

	_, err = sender.Write([]byte{0xFF, 0xD8, 1, 2})
	test.That(t, err, test.ShouldBeNil)
	_, err = sender.Write([]byte{3, 0xFF, 0xD9})
	test.That(t, err, test.ShouldBeNil)

	waitForCount(t, sink, 1)
	cancel()
	test.That(t, <-done, test.ShouldBeNil)

	test.That(t, sink.images, test.ShouldHaveLength, 1)
	test.That(t, sink.images[0].source, test.ShouldEqual, "front")
	test.That(t, sink.images[0].data, test.ShouldResemble, []byte{0xFF, 0xD8, 1, 2, 3, 0xFF, 0xD9})
}
