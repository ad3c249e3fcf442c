// Package serve implements the backend server command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hqnguyen/wastenet-go/internal/api"
	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/datastore"
	"github.com/hqnguyen/wastenet-go/internal/logging"
	"github.com/hqnguyen/wastenet-go/internal/mqtt"
	"github.com/hqnguyen/wastenet-go/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command running the backend web server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend API server",
		Long:  "Persist detection submissions, serve the dashboard API and stream new detections to subscribers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the API server to listen on")
	cmd.Flags().StringVar(&settings.WebServer.MediaPath, "mediapath", viper.GetString("webserver.mediapath"), "Directory for stored detection images")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer closeDataStore(ds)

	metrics := observability.NewMetrics()

	var options []api.Option
	if settings.MQTT.Enabled {
		client := mqtt.NewClient(settings)
		if err := client.Connect(context.Background()); err != nil {
			log.Error("MQTT connect failed, continuing without publication", "error", err)
		} else {
			options = append(options, api.WithMQTTClient(client))
			defer client.Disconnect()
		}
	}

	server := api.NewServer(settings, ds, metrics, options...)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("web server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}

func closeDataStore(ds datastore.Interface) {
	if err := ds.Close(); err != nil {
		logging.Error("failed to close datastore", "error", err)
	}
}
