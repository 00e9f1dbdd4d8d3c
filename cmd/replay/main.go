// Package main replays recorded frames through the detection pipeline and
// prints one JSON bounding box batch per frame on stdout.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"yolonode/internal/config"
	"yolonode/internal/logger"
	"yolonode/internal/service/ai"
	"yolonode/internal/service/detection"
	"yolonode/internal/service/display"
	"yolonode/internal/service/overlay"
	"yolonode/internal/service/publisher"
	"yolonode/internal/service/replay"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

const (
	flagBag     = "bag"
	flagTopic   = "topic"
	flagImages  = "images"
	flagModel   = "model"
	flagLabels  = "labels"
	flagDisplay = "display"
)

func main() {
	cfg := config.Load()

	app := &cli.App{
		Name:  "replay",
		Usage: "run the detector over a rosbag or an image directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagBag,
				Usage: "rosbag file to read frames from",
			},
			&cli.StringFlag{
				Name:  flagTopic,
				Usage: "compressed image topic inside the bag",
				Value: cfg.ImageTopic,
			},
			&cli.StringFlag{
				Name:  flagImages,
				Usage: "directory of images to read frames from",
			},
			&cli.StringFlag{
				Name:  flagModel,
				Usage: "ONNX model",
				Value: cfg.ModelPath,
			},
			&cli.StringFlag{
				Name:  flagLabels,
				Usage: "label file of the model",
				Value: cfg.LabelsPath,
			},
			&cli.BoolFlag{
				Name:  flagDisplay,
				Usage: "show annotated frames in a window",
			},
		},
		Action: func(c *cli.Context) error {
			return replayAction(c, cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func replayAction(c *cli.Context, cfg *config.Config) (err error) {
	src, err := source(c)
	if err != nil {
		return err
	}

	cfg.ModelPath = c.String(flagModel)
	cfg.LabelsPath = c.String(flagLabels)
	cfg.DisplayMode = config.DisplayNone
	if c.Bool(flagDisplay) {
		cfg.DisplayMode = config.DisplayWindow
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	appLogger, err := logger.NewStderrLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, appLogger.Close()) }()

	detector, err := ai.NewDetectorService(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, detector.Close()) }()

	sink, err := display.New(cfg, nil, appLogger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, sink.Close()) }()

	out := publisher.NewLinePublisher(os.Stdout)
	frameDetector := detection.NewFrameDetector(detector, out, sink, overlay.NewPainter(), appLogger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := replay.Run(ctx, src, frameDetector, appLogger)
	appLogger.Info("Replayed %d frame(s): %d published, %d undecodable, %d publish failures",
		summary.Frames, summary.Published, summary.DecodeErrors, summary.PublishErrors)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func source(c *cli.Context) (replay.Source, error) {
	bag, images := c.String(flagBag), c.String(flagImages)
	switch {
	case bag != "" && images != "":
		return nil, errors.New("use either --bag or --images, not both")
	case bag != "":
		return replay.NewBagSource(bag, c.String(flagTopic)), nil
	case images != "":
		return replay.NewDirSource(images), nil
	default:
		return nil, errors.New("one of --bag or --images is required")
	}
}
