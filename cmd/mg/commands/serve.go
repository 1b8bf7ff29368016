package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/kwhmatch/pkg/api"
	"github.com/uhyunpark/kwhmatch/pkg/storage"
)

func newServeCmd(e *env) *cobra.Command {
	var addr, storeDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and WebSocket trade feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = e.cfg.API.Addr
			}
			if !cmd.Flags().Changed("store") {
				storeDir = e.cfg.Store.Dir
			}

			svc, store, closeFn, err := e.newService(storeDir)
			if err != nil {
				return err
			}
			defer closeFn()
			if store == nil {
				// nothing on disk; runs are listed until the process exits
				store = storage.NewMemStore()
				svc.Store = store
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(e.log, svc, store, e.cfg.API.AllowedOrigins)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				srv.Close()
				if err != nil {
					e.log.Errorw("api_server_failed", "err", err)
				}
				return err
			case <-ctx.Done():
			}

			e.log.Infow("api_server_stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default from API_ADDR)")
	cmd.Flags().StringVar(&storeDir, "store", "", "pebble directory for archived runs (default from STORE_DIR)")
	return cmd
}
