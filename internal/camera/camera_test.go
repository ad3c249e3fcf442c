package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqnguyen/wastenet-go/internal/conf"
)

func testCamera() *Camera {
	settings := &conf.Settings{}
	settings.Realtime.Camera = conf.CameraSettings{
		Tool:   "rpicam-still",
		Width:  640,
		Height: 480,
	}
	return New(settings)
}

func TestAcquireStillArgs(t *testing.T) {
	cam := testCamera()

	var gotName string
	var gotArgs []string
	cam.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte("jpegdata"), nil
	})

	data, err := cam.AcquireStill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)

	assert.Equal(t, "rpicam-still", gotName)
	assert.Contains(t, gotArgs, "--nopreview")
	assert.Contains(t, gotArgs, "640")
	assert.Contains(t, gotArgs, "480")
	assert.NotContains(t, gotArgs, "--quality", "stills are full quality")
}

func TestAcquireFrameReducesQuality(t *testing.T) {
	cam := testCamera()

	var gotArgs []string
	cam.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte("frame"), nil
	})

	_, err := cam.AcquireFrame(context.Background())
	require.NoError(t, err)
	assert.Contains(t, gotArgs, "--quality")
}

func TestCaptureEmptyOutput(t *testing.T) {
	cam := testCamera()
	cam.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	})

	_, err := cam.AcquireStill(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image data")
}

func TestCaptureRunnerError(t *testing.T) {
	cam := testCamera()
	cam.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, assert.AnError
	})

	_, err := cam.AcquireStill(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCapturesAreSerialized(t *testing.T) {
	cam := testCamera()

	var active, maxActive int32
	cam.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			prev := atomic.LoadInt32(&maxActive)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return []byte("x"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = cam.AcquireStill(context.Background())
			} else {
				_, _ = cam.AcquireFrame(context.Background())
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive),
		"still and frame captures must never overlap on the device")
}
