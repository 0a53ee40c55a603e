// Command etl runs the parts/status transformation over a workbook or a pair
// of CSV files and prints the run result as JSON.
//
//	etl transform --workbook in/MasterBOM.xlsx --parts-sheet MasterBOM --status-sheet Status
//	etl transform --parts-csv parts.csv --status-csv status.csv --output-dir out
//	etl validate --config run.json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "etl",
		Short:         "Transform MasterBOM parts and status sheets into analytics tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTransformCmd(), newValidateCmd())
	return root
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
