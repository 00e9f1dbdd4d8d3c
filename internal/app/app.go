package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"yolonode/internal/codec"
	"yolonode/internal/config"
	"yolonode/internal/handler"
	"yolonode/internal/logger"
	"yolonode/internal/route"
	"yolonode/internal/service"
	"yolonode/internal/service/ai"
	"yolonode/internal/service/detection"
	"yolonode/internal/service/display"
	"yolonode/internal/service/overlay"
	"yolonode/internal/service/publisher"
	"yolonode/internal/service/websocket"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// StartupError reports a failure while building the node, before any frame
// is accepted.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed (%s): %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

type App struct {
	config    *config.Config
	logger    *logger.Logger
	detector  *ai.DetectorService
	display   display.Sink
	topicHub  *websocket.HubService
	viewerHub *websocket.HubService
	publisher *publisher.TopicPublisher
	manager   *service.Manager
	server    *http.Server
}

// NewApp validates cfg, loads the model and wires every service.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &StartupError{Stage: "config", Err: err}
	}

	c, err := codec.New(cfg.Codec)
	if err != nil {
		return nil, &StartupError{Stage: "config", Err: err}
	}

	detector, err := ai.NewDetectorService(cfg, logger)
	if err != nil {
		return nil, &StartupError{Stage: "model", Err: err}
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		detector: detector,
		topicHub: websocket.NewHubService(cfg.BBoxTopic, logger),
	}
	if cfg.DisplayMode == config.DisplayWeb {
		a.viewerHub = websocket.NewHubService("viewers", logger)
	}

	var viewers display.Broadcaster
	if a.viewerHub != nil {
		viewers = a.viewerHub
	}
	a.display, err = display.New(cfg, viewers, logger)
	if err != nil {
		detector.Close()
		return nil, &StartupError{Stage: "display", Err: err}
	}

	a.publisher = publisher.NewTopicPublisher(a.topicHub, c, logger)
	frameDetector := detection.NewFrameDetector(detector, a.publisher, a.display, overlay.NewPainter(), logger)
	a.manager = service.NewManager(frameDetector, cfg, logger)
	a.manager.CloseOnStop(a.display)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           route.SetupRoutes(a.manager, a.topicHub, a.viewerHub, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run serves until ctx is cancelled or a service fails. Cancellation is a
// normal shutdown and returns nil.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.topicHub.Run(ctx) })
	if a.viewerHub != nil {
		g.Go(func() error { return a.viewerHub.Run(ctx) })
	}
	g.Go(func() error { return a.manager.Run(ctx) })

	if a.config.CamerasPort > 0 {
		g.Go(func() error { return handler.UDPCameraHandler(ctx, a.manager, a.logger, a.config) })
	}

	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	a.logger.Info("🚀 YOLO detection node")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📥 Input topic: %s%s", route.TopicPrefix, a.config.ImageTopic)
	a.logger.Info("📤 Output topic: %s%s (%s)", route.TopicPrefix, a.config.BBoxTopic, a.config.Codec)
	a.logger.Info("🤖 AI Model: %s", a.config.ModelPath)
	a.logger.Info("🖥️  Display: %s", a.config.DisplayMode)

	err := g.Wait()
	a.logger.Info("🛑 Node stopped after %d published batch(es)", a.publisher.Published())
	return err
}

// Close releases the model. The display is closed by the processing
// worker, on the thread that drove it.
func (a *App) Close() error {
	return a.detector.Close()
}
