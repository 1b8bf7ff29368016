package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/kwhmatch/pkg/ledger"
)

func newRunCmd(e *env) *cobra.Command {
	var input, out, runID, storeDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load orders (csv/json/yaml) and run matching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := e.newService(storeDir)
			if err != nil {
				return err
			}
			defer closeFn()

			var id *string
			if runID != "" {
				id = &runID
			}
			res, err := svc.ExecuteFile(cmd.Context(), input, id)
			if err != nil {
				return fmt.Errorf("failed to run %s: %w", input, err)
			}
			return writeLedger(cmd.OutOrStdout(), res.Ledger, out)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "order file (.csv, .json, .yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the ledger here (.json or .yaml) instead of stdout")
	cmd.Flags().StringVar(&runID, "run-id", "", "run id attached to every trade")
	cmd.Flags().StringVar(&storeDir, "store", "", "archive the run in this pebble directory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// writeLedger prints the ledger as JSON, or writes it to path and prints a
// confirmation.
func writeLedger(w io.Writer, l *ledger.Ledger, path string) error {
	if path == "" {
		data, err := l.JSON()
		if err != nil {
			return fmt.Errorf("failed to encode ledger: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if err := l.WriteFile(path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "ledger written to %s\n", path)
	return err
}
