package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/kwhmatch/pkg/simulate"
)

func newSimCmd(e *env) *cobra.Command {
	var (
		name string
		seed int64
		n    int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Generate a seeded scenario and run it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("name") {
				name = e.cfg.Sim.Name
			}
			if !flags.Changed("seed") {
				seed = e.cfg.Sim.Seed
			}
			if !flags.Changed("n") {
				n = e.cfg.Sim.Orders
			}
			if n < 0 {
				return fmt.Errorf("--n must be >= 0, got %d", n)
			}

			svc, _, closeFn, err := e.newService("")
			if err != nil {
				return err
			}
			defer closeFn()

			orders := simulate.GenerateScenario(name, seed, n, svc.Clock.Now())
			runID := simulate.RunID(name, seed)
			e.log.Infow("scenario_generated", "name", name, "seed", seed, "orders", len(orders))

			res, err := svc.Execute(cmd.Context(), orders, &runID)
			if err != nil {
				return err
			}
			return writeLedger(cmd.OutOrStdout(), res.Ledger, out)
		},
	}

	cmd.Flags().StringVar(&name, "name", "demo", "scenario name")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&n, "n", 20, "number of orders")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the ledger here instead of stdout")
	return cmd
}
