// Package sample implements the demo data generator command.
package sample

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/datastore"
)

// Command creates the sample command generating demo waste records.
func Command(settings *conf.Settings) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate sample waste records for testing the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(settings, count)
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "Number of records to generate")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func runSample(settings *conf.Settings, count int) error {
	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer ds.Close()

	types, err := ds.WasteTypes()
	if err != nil {
		return err
	}
	if len(types) == 0 {
		return fmt.Errorf("no waste types found, run loadtypes first")
	}

	now := time.Now()
	for i := 0; i < count; i++ {
		wasteType := types[rand.Intn(len(types))]

		// spread timestamps over the trailing week
		age := time.Duration(rand.Intn(7*24*60)) * time.Minute
		record := datastore.WasteRecord{
			TypeID:     wasteType.ID,
			Confidence: 70 + rand.Float64()*29.9,
			Timestamp:  now.Add(-age),
		}
		if err := ds.Save(&record); err != nil {
			return err
		}
	}

	fmt.Printf("successfully generated %d sample waste records\n", count)
	return nil
}
