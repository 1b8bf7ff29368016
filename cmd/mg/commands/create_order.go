package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/uhyunpark/kwhmatch/pkg/loader"
)

func newCreateOrderCmd(e *env) *cobra.Command {
	var tenant, side, kwh, price, id, out string

	cmd := &cobra.Command{
		Use:   "create-order",
		Short: "Validate a single order and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if id == "" {
				id = fmt.Sprintf("order-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
			}

			order, err := loader.ParseOrderFields(id, tenant, side, kwh, price, now.Format(time.RFC3339Nano))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(order, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode order: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, string(data))

			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("failed to write order: %w", err)
				}
				fmt.Fprintf(w, "order written to %s\n", out)
			}
			e.log.Debugw("order_created", "id", order.ID, "side", order.Side.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&side, "side", "", "buy|b|sell|s")
	cmd.Flags().StringVar(&kwh, "kwh", "", "quantity in kWh, e.g. 2.5000")
	cmd.Flags().StringVar(&price, "price", "", "price per kWh, e.g. 0.1500")
	cmd.Flags().StringVar(&id, "id", "", "order id (generated when omitted)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the order JSON to this file")
	for _, f := range []string{"tenant", "side", "kwh", "price"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
