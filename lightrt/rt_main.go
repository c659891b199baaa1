package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gekko3d/lumen/lightrt/rt/app"
)

func main() {
	defaults := app.DefaultOptions()

	width := flag.Uint("width", uint(defaults.Width), "Output width in pixels")
	height := flag.Uint("height", uint(defaults.Height), "Output height in pixels")
	frames := flag.Int("frames", 16, "Number of frames to render")
	every := flag.Int("every", 0, "Write a snapshot every N frames (0: only the last)")
	out := flag.String("out", "frame.png", "Snapshot path; with -every, frames are numbered")
	scene := flag.String("scene", "", "glTF scene to render (default: built-in room)")
	workers := flag.Int("workers", 0, "Compute workers (0: one per CPU)")
	seed := flag.Uint64("seed", defaults.Seed, "Noise seed")
	exposure := flag.Float64("exposure", float64(defaults.Exposure), "Exposure multiplier")
	orbit := flag.Float64("orbit", defaults.OrbitSpeed, "Camera orbit speed in radians per frame")
	debug := flag.Bool("debug", false, "Enable debug logging with per-pass timings")
	flag.Parse()

	opts := app.Options{
		Width:      uint32(*width),
		Height:     uint32(*height),
		ScenePath:  *scene,
		Workers:    *workers,
		Seed:       *seed,
		Exposure:   float32(*exposure),
		OrbitSpeed: *orbit,
		Debug:      *debug,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, *frames, *every, *out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts app.Options, frames, every int, out string) error {
	application := app.NewApp(opts)
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Close()

	for i := 0; i < frames; i++ {
		if err := application.Update(); err != nil {
			return err
		}
		if err := application.Render(ctx); err != nil {
			return err
		}
		if path, ok := snapshotPath(out, i, frames, every); ok {
			if err := application.Snapshot(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// snapshotPath reports where frame i is written, if at all. With every > 0
// every Nth frame is numbered, and so is the last one when N does not divide
// frames.
func snapshotPath(out string, i, frames, every int) (string, bool) {
	last := i == frames-1
	switch {
	case every <= 0 && last:
		return out, true
	case every > 0 && ((i+1)%every == 0 || last):
		return numbered(out, i), true
	}
	return "", false
}

func numbered(path string, frame int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%04d%s", path[:len(path)-len(ext)], frame, ext)
}
