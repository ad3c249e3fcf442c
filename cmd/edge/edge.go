// Package edge implements the device-side detection loop command.
package edge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hqnguyen/wastenet-go/internal/camera"
	"github.com/hqnguyen/wastenet-go/internal/classifier"
	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/hardware"
	"github.com/hqnguyen/wastenet-go/internal/logging"
	"github.com/hqnguyen/wastenet-go/internal/observability"
	"github.com/hqnguyen/wastenet-go/internal/reporter"
)

// Command creates the edge command running the detection loop on the
// device.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Run the edge detection loop",
		Long:  "Wait for sorter triggers, classify captured items and report detections to the backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdge(settings)
		},
	}

	cmd.Flags().StringVar(&settings.Realtime.Serial.Port, "serialport", viper.GetString("realtime.serial.port"), "Serial device connected to the sorting microcontroller")
	cmd.Flags().StringVar(&settings.Realtime.Classifier.ModelPath, "model", viper.GetString("realtime.classifier.modelpath"), "Path to the TFLite model file")
	cmd.Flags().StringVar(&settings.Realtime.Backend.URL, "backend", viper.GetString("realtime.backend.url"), "Backend ingest endpoint URL")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runEdge(settings *conf.Settings) error {
	log := logging.ForService("edge")

	wasteNet, err := classifier.New(settings)
	if err != nil {
		return fmt.Errorf("initializing classifier: %w", err)
	}
	defer wasteNet.Close()

	cam := camera.New(settings)

	port, err := hardware.OpenPort(settings)
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	defer port.Close()

	link := hardware.NewLink(port)
	client := reporter.NewClient(settings)
	metrics := observability.NewMetrics()
	rep := reporter.New(settings, link, cam, wasteNet, client, reporter.WithMetrics(metrics))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// live preview stream, sharing the camera lock with still captures
	var preview *echo.Echo
	if settings.Realtime.Preview.Enabled {
		preview = echo.New()
		preview.HideBanner = true
		preview.HidePort = true
		preview.Use(middleware.Recover())
		preview.GET("/video_feed", cam.StreamHandler(settings.Realtime.Preview.FPS))
		preview.GET("/metrics", echo.WrapHandler(metrics.Handler()))
		go func() {
			addr := ":" + settings.Realtime.Preview.Port
			if err := preview.Start(addr); err != nil && err != http.ErrServerClosed {
				log.Error("preview server failed", "error", err)
			}
		}()
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info("shutting down", "signal", sig.String())
		cancel()
		// closing the port unblocks a pending trigger wait
		_ = port.Close()
		if preview != nil {
			_ = preview.Shutdown(context.Background())
		}
	}()

	if err := rep.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
