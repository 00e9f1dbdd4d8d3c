package handler

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"yolonode/internal/codec"
	"yolonode/internal/logger"
	"yolonode/internal/model"
)

const maxFrameSize = 32 << 20

// frameCodec decodes frames sent with their header as JSON.
var frameCodec = codec.NewJSON()

// DefaultSource is the frame_id given to frames that arrive without a
// header or a camera parameter.
const DefaultSource = "main_camera"

// FrameSink accepts frames for processing. Both methods report false when
// the frame was dropped.
type FrameSink interface {
	HandleFrame(frame *model.Frame) bool
	HandleCameraImage(image []byte, source string) bool
}

// UploadFrameHandler handles POST /api/frames. A JSON body is a complete
// frame with its own header; any other body is a bare compressed image
// from the camera named by the "camera" query parameter.
func UploadFrameHandler(frames FrameSink, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameSize))
		if err != nil {
			http.Error(w, "Failed to read frame", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "Empty frame", http.StatusBadRequest)
			return
		}

		var queued bool
		if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
			var frame model.Frame
			if err := frameCodec.Unmarshal(body, &frame); err != nil {
				logger.Warning("Rejected frame upload: %v", err)
				http.Error(w, "Invalid frame", http.StatusBadRequest)
				return
			}
			queued = frames.HandleFrame(&frame)
		} else {
			queued = frames.HandleCameraImage(body, sourceName(r))
		}

		w.Header().Set("Content-Type", "application/json")
		if !queued {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusAccepted)
		}
		json.NewEncoder(w).Encode(map[string]bool{"queued": queued})
	}
}

func sourceName(r *http.Request) string {
	if camera := r.URL.Query().Get("camera"); camera != "" {
		return camera
	}
	return DefaultSource
}
