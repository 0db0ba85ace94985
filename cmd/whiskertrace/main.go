package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"whiskertrace/internal/models"
	"whiskertrace/internal/progress"
	"whiskertrace/pkg/alignment"
	"whiskertrace/pkg/config"
	"whiskertrace/pkg/lineio"
	"whiskertrace/pkg/masktoline"
	"whiskertrace/pkg/overlay"
	"whiskertrace/pkg/raster"
)

func main() {
	mode := flag.String("mode", "", "Operation: order, align, overlay or init-config")
	configPath := flag.String("config", "whiskertrace.yaml", "YAML configuration file")
	framesDir := flag.String("frames", "", "Directory of numbered video frames")
	masksDir := flag.String("masks", "", "Directory of numbered mask images (order mode)")
	linesPath := flag.String("lines", "", "Input line CSV (align and overlay modes)")
	outputPath := flag.String("output", "", "Output CSV file, or directory for overlay mode")
	precision := flag.Int("precision", 2, "Decimal places written to CSV")
	workers := flag.Int("workers", 0, "Override processing.numWorkers when > 0")
	flag.Parse()

	if *mode == "init-config" {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}

	var report progress.Callback
	if !cfg.Processing.Verbose {
		report = func(int, int, string) {}
	}

	start := time.Now()
	switch *mode {
	case "order":
		requireFlags(*masksDir, *outputPath)
		runOrder(cfg, *masksDir, *outputPath, *precision, report)
	case "align":
		requireFlags(*framesDir, *linesPath, *outputPath)
		runAlign(cfg, *framesDir, *linesPath, *outputPath, *precision, report)
	case "overlay":
		requireFlags(*framesDir, *linesPath, *outputPath)
		runOverlay(cfg, *framesDir, *linesPath, *outputPath)
	default:
		flag.Usage()
		os.Exit(1)
	}

	if cfg.Processing.Verbose {
		fmt.Printf("Completed %s in %.2f seconds\n", *mode, time.Since(start).Seconds())
	}
}

func requireFlags(values ...string) {
	for _, v := range values {
		if v == "" {
			flag.Usage()
			os.Exit(1)
		}
	}
}

func runOrder(cfg *config.Config, masksDir, outputPath string, precision int, report progress.Callback) {
	seq, err := raster.OpenFrameSequence(masksDir, 0)
	if err != nil {
		log.Fatalf("Failed to open masks: %v", err)
	}

	masks := models.NewMaskData()
	masks.SetImageSize(seq.ImageSize())
	level := uint8(cfg.Media.MaskThreshold)
	for _, t := range seq.Times() {
		img := seq.Image(t)
		if img == nil {
			log.Printf("Warning: skipping unreadable mask %d", t)
			continue
		}
		bin := raster.ThresholdMask(img, level)
		if pixels := raster.ForegroundPixels(bin.Pix, bin.Dims); len(pixels) > 0 {
			masks.AddAtTime(t, pixels)
		}
	}

	lines := masktoline.Convert(masks, cfg.MaskToLineParams(), masktoline.Thinning{}, report)
	if err := lineio.SaveFile(outputPath, lines, precision); err != nil {
		log.Fatalf("Failed to save lines: %v", err)
	}
	fmt.Printf("Wrote %d lines from %d masks to %s\n", lines.NumLines(), masks.Len(), outputPath)
}

func runAlign(cfg *config.Config, framesDir, linesPath, outputPath string, precision int, report progress.Callback) {
	seq, err := raster.OpenFrameSequence(framesDir, cfg.Media.ProcessRadius)
	if err != nil {
		log.Fatalf("Failed to open frames: %v", err)
	}
	lines, err := lineio.LoadFile(linesPath)
	if err != nil {
		log.Fatalf("Failed to load lines: %v", err)
	}
	lines.SetImageSize(seq.ImageSize())

	params := cfg.AlignmentParams()
	if cfg.Processing.Verbose {
		fmt.Printf("Aligning with width %d, range %d, mode %s\n", params.Width, params.Range, params.OutputMode)
	}
	aligned := alignment.Align(lines, seq, params, report)
	if err := lineio.SaveFile(outputPath, aligned, precision); err != nil {
		log.Fatalf("Failed to save lines: %v", err)
	}
	fmt.Printf("Wrote %d aligned lines to %s\n", aligned.NumLines(), outputPath)
}

func runOverlay(cfg *config.Config, framesDir, linesPath, outputDir string) {
	seq, err := raster.OpenFrameSequence(framesDir, 0)
	if err != nil {
		log.Fatalf("Failed to open frames: %v", err)
	}
	lines, err := lineio.LoadFile(linesPath)
	if err != nil {
		log.Fatalf("Failed to load lines: %v", err)
	}
	n, err := overlay.RenderSequence(seq, lines, outputDir, cfg.OverlayOptions())
	if err != nil {
		log.Fatalf("Failed to render overlays: %v", err)
	}
	fmt.Printf("Wrote %d overlay images to %s\n", n, outputDir)
}
