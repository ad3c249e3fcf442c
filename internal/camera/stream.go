package camera

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

const streamBoundary = "frame"

// StreamHandler returns an echo handler serving an MJPEG preview stream.
// Each part is one JPEG frame grabbed under the shared camera lock, so the
// preview pauses briefly while a still capture is in progress instead of
// racing it.
func (c *Camera) StreamHandler(fps int) echo.HandlerFunc {
	if fps <= 0 {
		fps = 30
	}
	frameInterval := time.Second / time.Duration(fps)

	return func(ctx echo.Context) error {
		resp := ctx.Response()
		resp.Header().Set(echo.HeaderContentType,
			fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", streamBoundary))
		resp.WriteHeader(200)

		reqCtx := ctx.Request().Context()
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		for {
			select {
			case <-reqCtx.Done():
				return nil
			case <-ticker.C:
			}

			frame, err := c.AcquireFrame(reqCtx)
			if err != nil {
				if c.log != nil {
					c.log.Warn("preview frame grab failed", "error", err)
				}
				continue
			}

			header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				streamBoundary, len(frame))
			if _, err := resp.Write([]byte(header)); err != nil {
				return nil // client went away
			}
			if _, err := resp.Write(frame); err != nil {
				return nil
			}
			if _, err := resp.Write([]byte("\r\n")); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
