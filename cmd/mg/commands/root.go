package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uhyunpark/kwhmatch/params"
	"github.com/uhyunpark/kwhmatch/pkg/service"
	"github.com/uhyunpark/kwhmatch/pkg/sink"
	"github.com/uhyunpark/kwhmatch/pkg/storage"
	"github.com/uhyunpark/kwhmatch/pkg/util"
)

// env is shared by every subcommand of one root command.
type env struct {
	cfg    params.Config
	logger *zap.Logger
	log    *zap.SugaredLogger

	// global flags
	logLevel string
	envPath  string
}

// NewRootCmd builds the mg command tree. Each call returns an independent
// tree, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:          "mg",
		Short:        "Batch double-auction matching for kWh orders",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&e.envPath, "env", "", ".env file to load (default ./.env)")

	root.AddCommand(
		newRunCmd(e),
		newSimCmd(e),
		newCreateOrderCmd(e),
		newServeCmd(e),
		newLedgerCmd(e),
	)
	return root
}

func (e *env) setup() error {
	e.cfg = params.LoadFromEnv(e.envPath)
	if e.logLevel != "" {
		e.cfg.Log.Level = e.logLevel
	}

	var err error
	if e.cfg.Log.File != "" {
		e.logger, err = util.NewLoggerWithFile(e.cfg.Log.File, e.cfg.Log.Level)
	} else {
		e.logger, err = util.NewLogger(e.cfg.Log.Level)
	}
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	e.log = e.logger.Sugar()
	return nil
}

// newService builds a run service archiving to storeDir (no archive when
// empty) and publishing to the configured brokers. The returned func releases
// both.
func (e *env) newService(storeDir string) (*service.RunService, storage.RunStore, func(), error) {
	svc := service.New(e.log)
	svc.Sink = sink.New(e.cfg.Kafka.Brokers, e.cfg.Kafka.Topic)
	if len(e.cfg.Kafka.Brokers) > 0 {
		e.log.Infow("sink_enabled", "brokers", e.cfg.Kafka.Brokers, "topic", e.cfg.Kafka.Topic)
	}

	var store storage.RunStore
	if storeDir != "" {
		ps, err := storage.NewPebbleStore(storeDir)
		if err != nil {
			svc.Sink.Close()
			return nil, nil, nil, err
		}
		store = ps
		svc.Store = store
		e.log.Infow("store_opened", "dir", storeDir)
	}

	closeFn := func() {
		if err := svc.Sink.Close(); err != nil {
			e.log.Warnw("sink_close_failed", "err", err)
		}
		if store != nil {
			if err := store.Close(); err != nil {
				e.log.Warnw("store_close_failed", "err", err)
			}
		}
	}
	return svc, store, closeFn, nil
}
