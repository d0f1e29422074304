// Command errdemo renders random gaussian error bars to a PNG.
//
// Usage:
//
//	errdemo -n 100 -output bars.png
//	errdemo -config style.toml -watch
//	errdemo -zoom 2 -backend software
//
// A TOML config file is applied on top of the generated data; with -watch
// the image is re-rendered every time the file changes.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/error2d"
	"github.com/gogpu/error2d/backend"

	// Register the GPU backend.
	_ "github.com/gogpu/error2d/backend/wgpu"
)

func main() {
	var (
		width      = flag.Int("width", 800, "image width")
		height     = flag.Int("height", 600, "image height")
		ratio      = flag.Float64("ratio", 1, "device pixel ratio")
		n          = flag.Int("n", 100, "number of points")
		seed       = flag.Int64("seed", 1, "random seed")
		output     = flag.String("output", "errors.png", "output file")
		configPath = flag.String("config", "", "TOML config applied after the generated data")
		name       = flag.String("backend", "", "backend name (default: best available)")
		zoom       = flag.Float64("zoom", 0, "also render a copy zoomed by this factor")
		watch      = flag.Bool("watch", false, "re-render when the config file changes")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		error2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	b, err := openBackend(*name)
	if err != nil {
		log.Fatalf("Backend: %v", err)
	}
	defer b.Close()
	log.Printf("Using %s backend", b.Name())

	target, err := b.NewTarget(*width, *height, *ratio)
	if err != nil {
		log.Fatalf("Target: %v", err)
	}
	defer target.Destroy()

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // demo data
	aspect := float64(*width) / float64(*height)
	r, err := error2d.New(target, demoConfig(rng, *n, aspect))
	if err != nil {
		log.Fatalf("Create renderer: %v", err)
	}
	defer r.Destroy()

	d := &demo{target: target, r: r, output: *output, zoom: *zoom}
	if *configPath != "" {
		if err := d.applyFile(*configPath); err != nil {
			log.Fatalf("Config: %v", err)
		}
	}
	if err := d.render(); err != nil {
		log.Fatalf("Render: %v", err)
	}

	if *watch {
		if *configPath == "" {
			log.Fatal("-watch requires -config")
		}
		if err := d.watch(*configPath); err != nil {
			log.Fatalf("Watch: %v", err)
		}
	}
}

// demo holds one renderer and where its output goes.
type demo struct {
	target backend.Target
	r      *error2d.Renderer
	output string
	zoom   float64
}

// openBackend initialises the named backend, or the best available one.
func openBackend(name string) (backend.RenderBackend, error) {
	if name == "" {
		return backend.InitDefault()
	}
	b := backend.Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", backend.ErrBackendNotAvailable,
			name, strings.Join(backend.Available(), ", "))
	}
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

// demoConfig generates n gaussian points with gaussian errors, in a range
// of ±10 stretched horizontally by the aspect ratio.
func demoConfig(rng *rand.Rand, n int, aspect float64) *error2d.Config {
	positions := make(error2d.Flat, 2*n)
	for i := range positions {
		positions[i] = rng.NormFloat64()
	}
	errs := make(error2d.Flat, 4*n)
	for i := range errs {
		errs[i] = math.Abs(rng.NormFloat64())
	}
	return &error2d.Config{
		Positions: positions,
		Errors:    errs,
		CapSize:   error2d.Float64(4),
		LineWidth: error2d.Float64(1),
		Color:     error2d.Colors("rgba(0, 0, 127, 1)"),
		Range:     error2d.Range4(-10*aspect, -10, 10*aspect, 10),
	}
}

// applyFile updates the renderer from a TOML file.
func (d *demo) applyFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
	if err != nil {
		return err
	}
	cfg, err := error2d.ParseConfig(data)
	if err != nil {
		return err
	}
	cfg.Draw = error2d.Bool(false)
	return d.r.Draw(cfg)
}

// render draws to the output file and, with a zoom factor, a zoomed copy
// next to it. The zoom only updates the range.
func (d *demo) render() error {
	if err := d.renderTo(d.output); err != nil {
		return err
	}
	if d.zoom <= 0 || d.zoom == 1 {
		return nil
	}

	rng, ok := d.r.Range()
	if !ok {
		return nil
	}
	defer func() {
		// Restore the unzoomed range for the next render.
		_ = d.r.Update(&error2d.Config{Range: &rng})
	}()
	if err := d.r.Update(&error2d.Config{Range: zoomRange(rng, d.zoom)}); err != nil {
		return err
	}
	return d.renderTo(zoomedName(d.output))
}

func (d *demo) renderTo(path string) error {
	d.target.Clear(color.White)
	if err := d.r.Draw(nil); err != nil {
		return err
	}
	img, err := d.target.Image()
	if err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // user-supplied path
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("Saved %s (%d points)", path, d.r.Count())
	return nil
}

// watch re-applies the config file and re-renders on every change until
// interrupted.
func (d *demo) watch(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	log.Printf("Watching %s", path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !changed(event, abs) {
				continue
			}
			if err := d.applyFile(path); err != nil {
				log.Printf("Config: %v", err)
				continue
			}
			if err := d.render(); err != nil {
				log.Printf("Render: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher: %v", err)
		case <-interrupt:
			return nil
		}
	}
}

// changed reports whether event wrote or recreated the file at abs.
func changed(event fsnotify.Event, abs string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != abs {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// zoomRange scales rng about its centre so that its extent shrinks by
// factor.
func zoomRange(rng [4]float64, factor float64) *[4]float64 {
	cx, cy := (rng[0]+rng[2])/2, (rng[1]+rng[3])/2
	hw, hh := (rng[2]-rng[0])/2/factor, (rng[3]-rng[1])/2/factor
	return error2d.Range4(cx-hw, cy-hh, cx+hw, cy+hh)
}

// zoomedName inserts "-zoom" before the extension of path.
func zoomedName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-zoom" + ext
}
