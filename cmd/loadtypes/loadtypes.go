// Package loadtypes implements the command seeding the waste categories.
package loadtypes

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/datastore"
)

// defaultWasteTypes are the categories the sorter distinguishes. Existing
// rows with the same label are left untouched.
var defaultWasteTypes = []datastore.WasteType{
	{Label: "plastic", DisplayName: "Plastic", Color: "#3B82F6"},
	{Label: "paper", DisplayName: "Paper", Color: "#EAB308"},
	{Label: "metal", DisplayName: "Metal", Color: "#6B7280"},
	{Label: "glass", DisplayName: "Glass", Color: "#10B981"},
}

// Command creates the loadtypes command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "loadtypes",
		Short: "Load the initial waste types into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadTypes(settings)
		},
	}
}

func runLoadTypes(settings *conf.Settings) error {
	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer ds.Close()

	for i := range defaultWasteTypes {
		wasteType := defaultWasteTypes[i]
		if err := ds.EnsureWasteType(&wasteType); err != nil {
			return err
		}
		fmt.Printf("waste type %q ready (id %d)\n", wasteType.Label, wasteType.ID)
	}

	fmt.Println("successfully loaded initial waste types")
	return nil
}
