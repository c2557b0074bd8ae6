package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onboardgo/internal/api"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "onboardgo",
		Short:         "Onboarding funnel tracking and analysis server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (json or yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), cfgPath)
			},
		},
		&cobra.Command{
			Use:   "analyze",
			Short: "Print the funnel analysis and insights as JSON",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), cfgPath, func(ctx context.Context, a *app) error {
					result, err := a.service.Analyze(ctx)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete all sessions and the CSV backup",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd.Context(), cfgPath, func(ctx context.Context, a *app) error {
					if err := a.service.Reset(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "All data reset successfully")
					return nil
				})
			},
		},
		newExportCmd(&cfgPath),
	)
	return root
}

func newExportCmd(cfgPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write sessions and funnel summary to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *cfgPath, func(ctx context.Context, a *app) error {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := a.service.Export(ctx, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				a.logger.Info("exported workbook", zap.String("path", out))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "onboarding_data.xlsx", "output file")
	return cmd
}

func withApp(ctx context.Context, cfgPath string, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func runServe(ctx context.Context, cfgPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, cfgPath, func(ctx context.Context, a *app) error {
		if !a.cfg.Logging.Development {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := api.NewHandler(a.service, a.cfg.BasicConfig.StaticDir, a.logger)
		srv := &http.Server{
			Addr:              a.cfg.BasicConfig.ServerAddress,
			Handler:           api.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("server listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server stopped: %w", err)
		case <-ctx.Done():
		}

		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
}
