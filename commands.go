package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/handler"
	"github.com/spf13/cobra"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *globalFlags) error {
	a, err := newApp(ctx, flags, os.Stdout, modeServer)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("Starting Inventory API")

	handlers := http.Handlers{
		Inventory: handler.NewInventoryHandler(a.inventory, a.logger),
		Database:  handler.NewDatabaseHandler(a.inventory, a.logger),
		Events:    handler.NewEventsHandler(a.inventory, a.logger),
	}
	server := http.NewServer(&a.cfg.Server, handlers, a.logger, a.telemetry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.logger.Info("Server stopped")
	return nil
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store as a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr(), modeOneShot)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.inventory.ExportAll(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(output, append(data, '\n'), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func importCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole store with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr(), modeOneShot)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.inventory.ImportAll(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Import complete")
			return nil
		},
	}
}

func resetCmd(flags *globalFlags) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the factory catalog and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("reset discards every product; rerun with --yes to confirm")
			}

			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr(), modeOneShot)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.inventory.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Store reset to factory defaults")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm the reset")
	return cmd
}

func statsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr(), modeOneShot)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.inventory.GetStats(cmd.Context()))
		},
	}
}
