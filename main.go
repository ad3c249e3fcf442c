package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hqnguyen/wastenet-go/cmd/edge"
	"github.com/hqnguyen/wastenet-go/cmd/loadtypes"
	"github.com/hqnguyen/wastenet-go/cmd/sample"
	"github.com/hqnguyen/wastenet-go/cmd/serve"
	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.HumanReadable().Error("error loading configuration", "error", err)
		os.Exit(1)
	}

	if settings.Main.Log.Enabled {
		closeLog, err := logging.AddFileOutput(settings.Main.Log.Path)
		if err != nil {
			logging.HumanReadable().Error("error opening log file", "path", settings.Main.Log.Path, "error", err)
			os.Exit(1)
		}
		defer func() { _ = closeLog() }()
	}

	rootCmd := &cobra.Command{
		Use:   "wastenet",
		Short: "WasteNet-Go waste sorting pipeline",
		Long:  "Edge classification of sorted waste items and the backend collecting and broadcasting detections.",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "error binding flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		edge.Command(settings),
		loadtypes.Command(settings),
		sample.Command(settings),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
