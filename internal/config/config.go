package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Display modes.
const (
	DisplayWindow = "window"
	DisplayWeb    = "web"
	DisplayNone   = "none"
)

type Config struct {
	Port                int
	AuthToken           string
	ModelPath           string
	LabelsPath          string
	InputSize           int     // Model input width and height in pixels
	ConfidenceThreshold float32 // Minimum class score kept by the model
	NMSThreshold        float32 // IoU threshold for non-maximum suppression
	ImageTopic          string
	BBoxTopic           string
	QueueSize           int // Frames waiting for the processing worker
	DisplayMode         string
	WindowName          string
	Codec               string
	CamerasPort         int               // UDP camera port, 0 disables the listener
	CameraNames         map[string]string // ip -> frame_id
	LogDirectory        string
	LogLevel            string
}

// Load reads the configuration from the environment. Values found in a .env
// file in the working directory are loaded first and never override
// variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		AuthToken:           getEnv("AUTH_TOKEN", ""),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "model", "best.onnx")),
		LabelsPath:          getEnv("LABELS_PATH", filepath.Join(".", "model", "labels.yaml")),
		InputSize:           getEnvAsInt("INPUT_SIZE", 640),
		ConfidenceThreshold: getEnvAsFloat32("CONFIDENCE_THRESHOLD", 0.25),
		NMSThreshold:        getEnvAsFloat32("NMS_THRESHOLD", 0.7),
		ImageTopic:          getEnv("IMAGE_TOPIC", "/main_camera/image_raw/compressed"),
		BBoxTopic:           getEnv("BBOX_TOPIC", "/detected_bboxes"),
		QueueSize:           getEnvAsInt("QUEUE_SIZE", 10),
		DisplayMode:         getEnv("DISPLAY_MODE", DisplayWindow),
		WindowName:          getEnv("WINDOW_NAME", "YOLO Inference"),
		Codec:               getEnv("CODEC", "json"),
		CamerasPort:         getEnvAsInt("CAMERAS_PORT", 0),
		CameraNames:         parseCameraNames(getEnv("CAMERA_NAMES", "")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that the configuration can start a node.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if c.InputSize <= 0 {
		return errors.Errorf("input size must be positive, got %d", c.InputSize)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence threshold must be within [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return errors.Errorf("nms threshold must be within [0,1], got %v", c.NMSThreshold)
	}
	if !strings.HasPrefix(c.ImageTopic, "/") || !strings.HasPrefix(c.BBoxTopic, "/") {
		return errors.New("topics must start with '/'")
	}
	if c.ImageTopic == c.BBoxTopic {
		return errors.Errorf("input and output topic are both %s", c.ImageTopic)
	}
	if c.QueueSize <= 0 {
		return errors.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	switch c.DisplayMode {
	case DisplayWindow, DisplayWeb, DisplayNone:
	default:
		return errors.Errorf("display mode must be one of window, web, none; got %q", c.DisplayMode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

// parseCameraNames parses "10.0.0.5=front,10.0.0.6=back".
func parseCameraNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[strings.TrimSpace(ip)] = strings.TrimSpace(name)
	}
	return names
}
