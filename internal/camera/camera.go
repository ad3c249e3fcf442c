// Package camera owns the physical camera handle. Still captures for
// classification and preview frame grabs run through the same component, a
// mutex serializes them so the two loops never race on the device. The
// lock is held only for the duration of one acquisition, never across
// classification or network calls.
package camera

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
	"github.com/hqnguyen/wastenet-go/internal/logging"
)

// captureTimeout bounds a single exec of the capture tool.
const captureTimeout = 10 * time.Second

// CommandRunner executes the capture tool and returns the JPEG bytes it
// wrote to stdout. Tests substitute a fake.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Camera is the single owner of the camera device.
type Camera struct {
	mu       sync.Mutex
	settings conf.CameraSettings
	runner   CommandRunner
	log      *slog.Logger
}

// New creates a Camera using the configured capture tool.
func New(settings *conf.Settings) *Camera {
	return &Camera{
		settings: settings.Realtime.Camera,
		runner:   defaultRunner,
		log:      logging.ForService("camera"),
	}
}

// SetRunner replaces the capture command runner, for tests.
func (c *Camera) SetRunner(runner CommandRunner) {
	c.runner = runner
}

// capture acquires the device lock and runs the capture tool once.
func (c *Camera) capture(ctx context.Context, extraArgs ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	args := []string{
		"--nopreview",
		"--output", "-",
		"--encoding", "jpg",
		"--width", strconv.Itoa(c.settings.Width),
		"--height", strconv.Itoa(c.settings.Height),
	}
	args = append(args, extraArgs...)

	data, err := c.runner(ctx, c.settings.Tool, args...)
	if err != nil {
		return nil, errors.New(err).
			Component("camera").
			Category(errors.CategoryHardware).
			Context("tool", c.settings.Tool).
			Build()
	}
	if len(data) == 0 {
		return nil, errors.Newf("capture tool %s produced no image data", c.settings.Tool).
			Component("camera").
			Category(errors.CategoryHardware).
			Build()
	}
	return data, nil
}

// AcquireStill captures one full quality still image for classification.
func (c *Camera) AcquireStill(ctx context.Context) ([]byte, error) {
	return c.capture(ctx, "--timeout", "1")
}

// AcquireFrame captures one reduced quality frame for the preview stream.
func (c *Camera) AcquireFrame(ctx context.Context) ([]byte, error) {
	return c.capture(ctx, "--timeout", "1", "--quality", "70")
}
