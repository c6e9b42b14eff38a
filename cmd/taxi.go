package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/tripline/tripline/usecase/taxi"
)

// TaxiMain is wrapped by NewTaxiCommand and only exported for testing
// purposes.
var TaxiMain *taxi.Main

// NewTaxiCommand returns a new cobra command wrapping taxi.Main.
func NewTaxiCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	TaxiMain = taxi.NewMain()
	taxiCommand := &cobra.Command{
		Use:   "taxi",
		Short: "taxi - join, featurize and extract the TLC trip and fare data",
		Long:  `Runs the full exploration pipeline: ingest, join, filter, derive, chart, and write the sharded parquet extract.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = TaxiMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := taxiCommand.Flags()
	err = commandeer.Flags(flags, TaxiMain)
	if err != nil {
		panic(err)
	}
	return taxiCommand
}

func init() {
	subcommandFns["taxi"] = NewTaxiCommand
}
