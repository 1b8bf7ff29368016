package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/kwhmatch/pkg/ledger"
)

func newLedgerCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect ledger files",
	}
	cmd.AddCommand(newLedgerVerifyCmd(e), newLedgerConvertCmd(e))
	return cmd
}

func newLedgerVerifyCmd(e *env) *cobra.Command {
	var digest string

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Print a ledger's digest and summary, and compare against --digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.ReadFile(args[0])
			if err != nil {
				return err
			}
			got, err := l.Digest()
			if err != nil {
				return err
			}
			s := l.Summary()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "digest:    %s\n", got)
			fmt.Fprintf(w, "trades:    %d\n", s.Trades)
			fmt.Fprintf(w, "total_kwh: %s\n", s.TotalKwh)
			fmt.Fprintf(w, "notional:  %s\n", s.Notional)
			fmt.Fprintf(w, "vwap:      %s\n", s.VWAP)

			if digest != "" && !strings.EqualFold(strings.TrimSpace(digest), got) {
				e.log.Warnw("ledger_digest_mismatch", "file", args[0], "want", digest, "got", got)
				return fmt.Errorf("digest mismatch: want %s, got %s", digest, got)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&digest, "digest", "", "expected hex digest")
	return cmd
}

func newLedgerConvertCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Rewrite a ledger as JSON or YAML, chosen by OUT's extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.ReadFile(args[0])
			if err != nil {
				return err
			}
			e.log.Debugw("ledger_convert", "in", args[0], "out", args[1], "trades", l.Len())
			return writeLedger(cmd.OutOrStdout(), l, args[1])
		},
	}
}
