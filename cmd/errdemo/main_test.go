package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/error2d"
	"github.com/gogpu/error2d/backend"
)

func TestZoomRange(t *testing.T) {
	got := zoomRange([4]float64{-10, -5, 10, 5}, 2)
	want := [4]float64{-5, -2.5, 5, 2.5}
	if *got != want {
		t.Errorf("zoomRange() = %v, want %v", *got, want)
	}
}

func TestZoomedName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"errors.png", "errors-zoom.png"},
		{"out/bars.png", "out/bars-zoom.png"},
		{"plain", "plain-zoom"},
	}
	for _, tt := range tests {
		if got := zoomedName(tt.in); got != tt.want {
			t.Errorf("zoomedName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDemoConfig(t *testing.T) {
	cfg := demoConfig(rand.New(rand.NewSource(7)), 10, 2)
	pos, ok := cfg.Positions.(error2d.Flat)
	if !ok || len(pos) != 20 {
		t.Fatalf("positions = %v", cfg.Positions)
	}
	errs, ok := cfg.Errors.(error2d.Flat)
	if !ok || len(errs) != 40 {
		t.Fatalf("errors = %v", cfg.Errors)
	}
	for _, e := range errs {
		if e < 0 {
			t.Fatalf("negative error %v", e)
		}
	}
	if *cfg.Range != [4]float64{-20, -10, 20, 10} {
		t.Errorf("range = %v", *cfg.Range)
	}
}

func TestChanged(t *testing.T) {
	abs := "/tmp/style.toml"
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: abs, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: abs, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: abs, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/tmp/other.toml", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := changed(tt.event, abs); got != tt.want {
			t.Errorf("changed(%v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestRenderSoftware(t *testing.T) {
	b, err := openBackend(backend.BackendSoftware)
	if err != nil {
		t.Fatalf("openBackend() error = %v", err)
	}
	defer b.Close()
	target, err := b.NewTarget(64, 48, 1)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	defer target.Destroy()

	r, err := error2d.New(target, demoConfig(rand.New(rand.NewSource(1)), 20, 2))
	if err != nil {
		t.Fatalf("error2d.New() error = %v", err)
	}
	defer r.Destroy()

	dir := t.TempDir()
	d := &demo{target: target, r: r, output: filepath.Join(dir, "out.png"), zoom: 2}
	if err := d.render(); err != nil {
		t.Fatalf("render() error = %v", err)
	}
	if rng, _ := r.Range(); rng != [4]float64{-20, -10, 20, 10} {
		t.Errorf("range not restored after zoom: %v", rng)
	}
	for _, name := range []string{"out.png", "out-zoom.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := openBackend("nope"); err == nil {
		t.Error("expected error for unknown backend")
	}
}
