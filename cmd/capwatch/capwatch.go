package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/capwatch/capwatch/pkg/nnonnx"
	"github.com/capwatch/capwatch/server"
	"github.com/capwatch/capwatch/server/eventdb"
	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/capwatch/capwatch/server/render"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
)

func main() {
	parser := argparse.NewParser("capwatch", "Container inspection pipeline")
	framesDir := parser.String("f", "frames", &argparse.Options{Help: "Directory of frames to process", Required: true})
	containerModel := parser.String("", "container-model", &argparse.Options{Help: "Container detection model (ONNX)", Default: "models/container.onnx"})
	closureModel := parser.String("", "closure-model", &argparse.Options{Help: "Closure detection model (ONNX)", Default: "models/closure.onnx"})
	brandModel := parser.String("", "brand-model", &argparse.Options{Help: "Brand classification model (ONNX)", Default: "models/brand.onnx"})
	brandClasses := parser.String("", "brand-classes", &argparse.Options{Help: "JSON array of brand class names", Default: "models/brand-classes.json"})
	ortLib := parser.String("", "ort", &argparse.Options{Help: "Path to the onnxruntime shared library", Default: "libonnxruntime.so"})
	storage := parser.String("", "storage", &argparse.Options{Help: "Directory for the event database", Default: "capwatch-data"})
	addr := parser.String("", "addr", &argparse.Options{Help: "HTTP listen address", Default: ":8080"})
	loop := parser.Flag("", "loop", &argparse.Options{Help: "Loop over the frame directory forever", Default: false})
	maxFPS := parser.Int("", "max-fps", &argparse.Options{Help: "Throttle processing to this many frames per second (0 = unlimited)", Default: 0})
	snapshotDir := parser.String("", "snapshots", &argparse.Options{Help: "Save an annotated snapshot of every Nth frame into this directory", Default: ""})
	snapshotEvery := parser.Int("", "snapshot-every", &argparse.Options{Help: "Snapshot interval in frames", Default: 30})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := nnonnx.Initialize(*ortLib); err != nil {
		logger.Errorf("Failed to initialize onnxruntime: %v", err)
		os.Exit(1)
	}

	// Models load best-effort: a missing model disables its stage, the rest
	// of the pipeline keeps running. Each model has a sidecar JSON next to
	// the weights describing input size and class vocabulary.
	loadDetector := func(name, path string) nn.ObjectDetector {
		config, err := nn.LoadModelConfig(path + ".json")
		if err != nil {
			logger.Warnf("Failed to load %v model config: %v", name, err)
			return nil
		}
		det, err := nnonnx.NewDetector(path, config)
		if err != nil {
			logger.Warnf("Failed to load %v model from %v: %v", name, path, err)
			return nil
		}
		logger.Infof("Loaded %v model from %v", name, path)
		return det
	}
	containerBackend := loadDetector("container", *containerModel)
	closureBackend := loadDetector("closure", *closureModel)

	brands, err := nn.LoadClassList(*brandClasses)
	if err != nil {
		logger.Warnf("Failed to load brand classes from %v: %v", *brandClasses, err)
	}
	var brandBackend nn.ImageClassifier
	if len(brands) != 0 {
		config := &nn.ModelConfig{
			Architecture: "classifier",
			Width:        pipeline.ClassifierInputWidth,
			Height:       pipeline.ClassifierInputHeight,
			Classes:      brands,
		}
		if b, err := nnonnx.NewClassifier(*brandModel, config); err != nil {
			logger.Warnf("Failed to load brand model from %v: %v", *brandModel, err)
		} else {
			logger.Infof("Loaded brand model from %v", *brandModel)
			brandBackend = b
		}
	}

	pipe := pipeline.NewPipeline(logger,
		pipeline.NewContainerDetector(logger, containerBackend),
		pipeline.NewClosureDetector(logger, closureBackend),
		pipeline.NewBrandClassifier(logger, brandBackend, brands))

	source, err := pipeline.NewDirectorySource(*framesDir)
	if err != nil {
		logger.Errorf("Failed to open frame source: %v", err)
		os.Exit(1)
	}
	source.Loop = *loop

	sinks := []pipeline.Sink{}
	if *snapshotDir != "" {
		snap, err := render.NewSnapshotSink(logger, *snapshotDir, *snapshotEvery)
		if err != nil {
			logger.Errorf("Failed to create snapshot directory: %v", err)
			os.Exit(1)
		}
		sinks = append(sinks, snap)
	}

	events, err := eventdb.Open(logger, *storage)
	if err != nil {
		logger.Errorf("Failed to open event database: %v", err)
		os.Exit(1)
	}

	runner := pipeline.NewRunner(logger, pipe, source, sinks...)
	if *maxFPS > 0 {
		runner.MinFrameInterval = time.Second / time.Duration(*maxFPS)
	}

	srv := server.NewServer(logger, runner, events)
	srv.Start()
	daemon.SdNotify(false, daemon.SdNotifyReady)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		logger.Infof("Received signal %v", s)
		srv.Shutdown()
	}()

	if err := srv.ListenHTTP(*addr); err != nil {
		logger.Errorf("HTTP server error: %v", err)
		os.Exit(1)
	}
}
