// Command maa-rpcd is the session-scoped RPC server of spec.md §4.9: it
// exposes the Core and Task services over HTTP and leaves MaaCore
// unloaded until a client issues load_core.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/callback"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/config"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/logging"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/rpc"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "maa-rpcd",
	Short: "Session-scoped RPC server for MaaCore",
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "override the configured listen address")
}

func run(cmd *cobra.Command, args []string) error {
	log, err := logging.New(logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	cfg := config.Default()
	if listenAddr != "" {
		cfg.RPC.ListenAddr = listenAddr
	}

	pool := session.NewPool()
	router := callback.NewRouter(pool, log)
	core := rpc.NewCoreService(pool, log)
	task := rpc.NewTaskService(pool, router, log)
	server := rpc.NewServer(core, task, log)

	httpServer := &http.Server{
		Addr:    cfg.RPC.ListenAddr,
		Handler: server,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.RPC.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
