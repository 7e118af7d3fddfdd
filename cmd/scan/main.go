package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/recipient-scanner/internal/application/services"
	"github.com/bimakw/recipient-scanner/internal/bootstrap"
	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

var (
	chainID  string
	contract string
	limit    int
	progress bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "scan",
		Short:         "Analyze outgoing token transfers of a wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&chainID, "chain", "bsc", "Chain id (bsc, moonbeam, starknet)")
	rootCmd.PersistentFlags().StringVar(&contract, "contract", "", "Token contract address (default: the chain's default token)")

	recipientsCmd := &cobra.Command{
		Use:   "recipients <wallet>",
		Short: "Aggregate everyone who received tokens from the wallet",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecipients,
	}
	recipientsCmd.Flags().BoolVar(&progress, "progress", true, "Print progress to stderr")

	transfersCmd := &cobra.Command{
		Use:   "transfers <wallet>",
		Short: "List the wallet's outgoing transfers, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransfers,
	}
	transfersCmd.Flags().IntVar(&limit, "limit", services.DefaultTransferLimit, "Maximum number of transfers")

	rootCmd.AddCommand(recipientsCmd, transfersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRecipients(cmd *cobra.Command, args []string) error {
	engine, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer engine.Close()

	abort := abortOnInterrupt(logger)

	var observer services.Observer = services.NopObserver
	if progress {
		observer = services.ObserverFuncs{
			Progress: func(p entities.ScanProgress) {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Step, p.TotalSteps, p.Message)
			},
			Partial: func(p entities.PartialResults) {
				fmt.Fprintf(os.Stderr, "  %d recipients, %d transfers\n", len(p.Recipients), p.TotalTransfers)
			},
		}
	}

	result, err := engine.Recipients.ScanRecipients(context.Background(), services.ScanRequest{
		ChainID:  chainID,
		Wallet:   args[0],
		Contract: contract,
		Abort:    abort,
	}, observer)
	if err != nil {
		return err
	}

	return printJSON(result)
}

func runTransfers(cmd *cobra.Command, args []string) error {
	engine, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer engine.Close()

	result, err := engine.Transfers.ListOutgoing(context.Background(), services.ListRequest{
		ChainID:  chainID,
		Wallet:   args[0],
		Contract: contract,
		Limit:    limit,
		Abort:    abortOnInterrupt(logger),
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

func setup() (*bootstrap.Engine, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Log.Level)

	engine, err := bootstrap.New(cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize scan engine: %w", err)
	}
	return engine, logger, nil
}

// abortOnInterrupt closes the returned channel on the first SIGINT or SIGTERM.
// The scan then stops and prints what it found so far.
func abortOnInterrupt(logger *zap.Logger) <-chan struct{} {
	abort := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("Interrupted, finishing with partial results")
		signal.Stop(sigCh)
		close(abort)
	}()
	return abort
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setupLogger logs to stderr so stdout carries only the JSON result
func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.WarnLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := config.Build()
	return logger
}
