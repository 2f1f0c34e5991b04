package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-recommendation-blender/api"
	"github.com/gcbaptista/go-recommendation-blender/config"
	"github.com/gcbaptista/go-recommendation-blender/internal/analytics"
	"github.com/gcbaptista/go-recommendation-blender/internal/engine"
	"github.com/gcbaptista/go-recommendation-blender/internal/watch"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var (
		port    string
		dataDir string
		watchOn bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve blends and the latest merged result over HTTP",
		Example: `  blender serve                         # listen on :8080
  blender serve --port 9000 --watch     # re-blend when an input file changes
  blender serve --data-dir /tmp/blend   # keep result snapshots elsewhere`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.loadSettings(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				settings.Server.Port = port
			}
			if flags.Changed("data-dir") {
				settings.Server.DataDir = dataDir
			}
			if flags.Changed("watch") {
				settings.Server.Watch = watchOn
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", ":"+settings.Server.Port)
			if err != nil {
				return fmt.Errorf("failed to listen on port %s: %w", settings.Server.Port, err)
			}
			return runServe(ctx, settings, listener, c.logger)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "Port to run the server on")
	cmd.Flags().StringVar(&dataDir, "data-dir", config.DefaultDataDir, "Directory to store result snapshots")
	cmd.Flags().BoolVar(&watchOn, "watch", false, "Re-blend when an input file changes")
	return cmd
}

// runServe serves the API on listener until ctx is cancelled. The listener is
// closed on return.
func runServe(ctx context.Context, settings *config.Settings, listener net.Listener, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	problems := append(settings.Blend.Validate(), settings.Server.Validate()...)
	if len(problems) > 0 {
		_ = listener.Close()
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}

	logger.Info("using data directory", zap.String("path", settings.Server.DataDir))
	eng := engine.NewEngine(settings.Blend, settings.Server, logger)
	defer eng.Close()

	lookups := analytics.NewService(eng, settings.Server.DataDir, logger)
	defer func() {
		if err := lookups.Save(); err != nil {
			logger.Warn("failed to save analytics data", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, eng, logger, api.RouteOptions{
		MaxRequestBytes: settings.Server.MaxRequestBytes,
		Analytics:       lookups,
	})

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var watcher *watch.Watcher
	if settings.Server.Watch {
		var err error
		watcher, err = watch.New(
			[]string{settings.Blend.ExternalPath, settings.Blend.ForkedPath},
			watch.DefaultDebounce,
			func(ctx context.Context) error {
				_, err := eng.BlendFiles(ctx)
				return err
			},
			logger,
		)
		if err != nil {
			_ = listener.Close()
			return err
		}
		if _, err := eng.BlendFilesAsync(model.JobTypeReload); err != nil {
			logger.Warn("initial blend could not be scheduled", zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}
