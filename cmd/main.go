package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lightlink-network/ll-bridge-validator/api"
	"github.com/lightlink-network/ll-bridge-validator/config"
	"github.com/lightlink-network/ll-bridge-validator/controller"
	"github.com/lightlink-network/ll-bridge-validator/database"
	"github.com/lightlink-network/ll-bridge-validator/ethereum"
	"github.com/lightlink-network/ll-bridge-validator/executor"
	"github.com/lightlink-network/ll-bridge-validator/indexer"
	"github.com/lightlink-network/ll-bridge-validator/metrics"
	"github.com/lightlink-network/ll-bridge-validator/quorum"
	"github.com/lightlink-network/ll-bridge-validator/substrate"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

// Version will be set at build time
var Version = "development"

// eventBuffer sizes the channels between indexer, controller and executor.
const eventBuffer = 256

// ledger is what the validator needs from Chain B: an event source and a
// call target.
type ledger interface {
	indexer.Source
	executor.SubstrateClient
	api.Ledger
}

var (
	_ ledger                  = &substrate.Client{}
	_ ledger                  = &quorum.LocalChain{}
	_ executor.EthereumClient = &ethereum.Client{}
	_ indexer.Source          = &ethereum.Client{}
	_ indexer.Cursor          = &database.Database{}
	_ executor.Recorder       = &database.Database{}
	_ api.DispatchStore       = &database.Database{}
	_ api.Controller          = &controller.Controller{}
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ll-bridge-validator",
		Short:        "Relays bridge messages between Ethereum and the ledger chain and votes on them",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the validator version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ll-bridge-validator %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	})

	return root
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	Logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.LogLevel}))
	slog.SetDefault(Logger)

	Logger.Info("Starting ll-bridge-validator ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH,
		"ledger", cfg.LedgerMode)

	if ctx == nil {
		ctx = context.Background()
	}
	// canceled on SIGINT, SIGTERM or when the controller is stopped
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	db, err := database.NewDatabase(database.DatabaseOpts{
		URI:          cfg.DatabaseURI,
		DatabaseName: cfg.DatabaseName,
		Logger:       Logger,
	})
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create database indexes: %w", err)
	}

	eth, err := ethereum.NewClient(ethereum.ClientOpts{
		Endpoint:      cfg.EthereumRPCURL,
		BridgeAddress: cfg.BridgeAddress,
		PrivateKey:    cfg.EthereumKey,
		GasPrice:      cfg.GasPrice,
		GasLimit:      cfg.GasLimit,
		RetryDelay:    cfg.RetryDelay,
		Logger:        Logger,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var chainB ledger
	switch cfg.LedgerMode {
	case config.LedgerLocal:
		machine, err := quorum.NewMachine(quorum.MachineOpts{
			Validators:  cfg.LocalValidators,
			ProposalTTL: cfg.LocalProposalTTL,
			Logger:      Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create local ledger: %w", err)
		}
		chainB = quorum.NewLocalChain(machine, cfg.LocalAccount)
		g.Go(func() error {
			return machine.Produce(ctx, cfg.SubstrateIndexing.FetchInterval)
		})
	default:
		sub, err := substrate.NewClient(substrate.ClientOpts{
			Endpoint:   cfg.SubstrateRPCURL,
			Seed:       cfg.SubstrateSeed,
			Network:    cfg.SubstrateNetwork,
			RetryDelay: cfg.RetryDelay,
			Logger:     Logger,
		})
		if err != nil {
			return err
		}
		chainB = sub
	}

	inbound := make(chan types.Event, eventBuffer)
	admitted := make(chan types.Event, eventBuffer)

	ctrl := controller.NewController(controller.ControllerOpts{
		Inbound:  inbound,
		Outbound: admitted,
		Logger:   Logger,
		Metrics:  m,
	})

	exec := executor.NewExecutor(executor.ExecutorOpts{
		Ethereum:    eth,
		Substrate:   chainB,
		Recorder:    db,
		Metrics:     m,
		Concurrency: cfg.ExecutorConcurrency,
		MaxAttempts: cfg.ExecutorMaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Logger:      Logger,
	})

	idx, err := indexer.NewIndexer(indexer.IndexerOpts{
		Sources: []indexer.SourceOpts{
			sourceOpts(eth, cfg.EthereumIndexing),
			sourceOpts(chainB, cfg.SubstrateIndexing),
		},
		Cursor:     db,
		Out:        inbound,
		Metrics:    m,
		RetryDelay: cfg.RetryDelay,
		Logger:     Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}

	server, err := api.NewServer(api.ServerOpts{
		Logger:     Logger,
		Port:       cfg.APIPort,
		Controller: ctrl,
		Dispatches: db,
		Ledger:     chainB,
		Metrics:    m,
	})
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}

	g.Go(func() error {
		// a stopped controller is terminal for the whole process
		defer cancel()
		return ctrl.Run(ctx)
	})
	g.Go(func() error {
		return exec.Run(ctx, admitted)
	})
	g.Go(func() error {
		return idx.Run(ctx)
	})
	g.Go(func() error {
		return server.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		Logger.Error("validator stopped with error", "error", err)
		return err
	}

	Logger.Info("Shut down gracefully")
	return nil
}

func sourceOpts(src indexer.Source, c config.Chain) indexer.SourceOpts {
	return indexer.SourceOpts{
		Source:            src,
		DefaultStartBlock: c.DefaultStartBlock,
		MinBatchSize:      c.MinBatchSize,
		MaxBatchSize:      c.MaxBatchSize,
		FetchInterval:     c.FetchInterval,
	}
}
