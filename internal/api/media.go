// internal/api/media.go: storage and serving of detection images.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

func (c *Controller) initMediaRoutes() {
	c.Echo.Static("/media/waste_images", c.mediaDir())
}

func (c *Controller) mediaDir() string {
	return conf.GetBasePath(c.Settings.WebServer.MediaPath)
}

// saveImage stores an uploaded detection image under a generated unique
// name and returns the stored file name.
func (c *Controller) saveImage(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.New(fmt.Errorf("opening uploaded image: %w", err)).
			Component("api").
			Category(errors.CategoryImageProcessing).
			Build()
	}
	defer src.Close()

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	dstPath := filepath.Join(c.mediaDir(), name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", errors.New(fmt.Errorf("creating image file: %w", err)).
			Component("api").
			Category(errors.CategoryImageProcessing).
			Context("path", dstPath).
			Build()
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.New(fmt.Errorf("writing image file: %w", err)).
			Component("api").
			Category(errors.CategoryImageProcessing).
			Context("path", dstPath).
			Build()
	}

	return name, nil
}
