package handler

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"yolonode/internal/config"
	"yolonode/internal/logger"

	"github.com/pkg/errors"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

const maxDatagramSize = 65535

// frameAssembler rebuilds JPEG frames split across UDP datagrams, one
// buffer per camera.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// add appends a datagram and returns the completed frame once the JPEG
// end marker arrives. Data before the first start marker is discarded.
func (a *frameAssembler) add(camera string, data []byte) []byte {
	imgBuffer, ok := a.buffers[camera]
	if !ok {
		imgBuffer = new(bytes.Buffer)
		a.buffers[camera] = imgBuffer
	}

	if bytes.HasPrefix(data, jpegHeader) {
		imgBuffer.Reset()
	} else if imgBuffer.Len() == 0 {
		return nil
	}
	imgBuffer.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil
	}
	fullFrame := make([]byte, imgBuffer.Len())
	copy(fullFrame, imgBuffer.Bytes())
	imgBuffer.Reset()
	return fullFrame
}

// cameraName maps a sender IP to its configured frame_id.
func cameraName(names map[string]string, ip string) string {
	if name, exists := names[ip]; exists {
		return name
	}
	return "unknown_" + ip
}

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG
// frames and queues complete frames until ctx is cancelled.
func UDPCameraHandler(ctx context.Context, frames FrameSink, logger *logger.Logger, cfg *config.Config) error {
	port := strconv.Itoa(cfg.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		return errors.Wrap(err, "failed to resolve UDP address")
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on UDP port %s", port)
	}
	return serveUDP(ctx, conn, frames, logger, cfg.CameraNames)
}

func serveUDP(ctx context.Context, conn *net.UDPConn, frames FrameSink, logger *logger.Logger, names map[string]string) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP camera handler started on %s", conn.LocalAddr())
	buffer := make([]byte, maxDatagramSize)
	assembler := newFrameAssembler()

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("UDP camera handler stopped")
				return nil
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		camera := cameraName(names, remoteAddr.IP.String())
		if frame := assembler.add(camera, buffer[:n]); frame != nil {
			frames.HandleCameraImage(frame, camera)
		}
	}
}
