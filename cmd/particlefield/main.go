package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ivlev/folio/internal/particles"
	"github.com/ivlev/folio/internal/particles/record"
	"github.com/ivlev/folio/internal/particles/window"
)

func main() {
	widthPtr := flag.Int("width", 1280, "Window width")
	heightPtr := flag.Int("height", 720, "Window height")
	seedPtr := flag.Int64("seed", time.Now().UnixNano(), "Field seed")
	pointsPtr := flag.Int("points", 150, "Particle count")
	segmentsPtr := flag.Int("segments", 50, "Connection line count")
	recordPtr := flag.String("record", "", "Encode the field to this video file with ffmpeg instead of opening a window")
	durationPtr := flag.Duration("duration", 10*time.Second, "Recording length")
	fpsPtr := flag.Int("fps", 30, "Recording frame rate")
	encoderPtr := flag.String("encoder", "libx264", "ffmpeg video codec")
	qualityPtr := flag.Int("quality", 23, "crf (libx264), cq (nvenc) or bitrate/100 kbit/s (videotoolbox)")
	flag.Parse()

	cfg := particles.DefaultConfig()
	cfg.Points, cfg.Segments = *pointsPtr, *segmentsPtr

	pointer := &particles.Pointer{}
	field := particles.NewField(cfg, pointer, *seedPtr)

	log.Printf("[*] %d particles, %d lines, seed %d", cfg.Points, cfg.Segments, *seedPtr)

	if *recordPtr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		start := time.Now()
		err := record.Encode(ctx, field, particles.DefaultCamera(), record.Options{
			Width: *widthPtr, Height: *heightPtr,
			FPS: *fpsPtr, Duration: *durationPtr,
			Encoder: *encoderPtr, Quality: *qualityPtr,
		}, *recordPtr)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		log.Printf("[+] %s written in %v", *recordPtr, time.Since(start).Round(time.Millisecond))
		return
	}

	if err := window.Run(window.NewGame(field, pointer), "folio particle field", *widthPtr, *heightPtr); err != nil {
		log.Fatalf("[-] %v", err)
	}
}
