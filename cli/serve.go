package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"runagent/backend"
	"runagent/cache"
	"runagent/config"
	"runagent/handler"
	"runagent/logging"
	"runagent/manager"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	v := viper.New()
	var args *config.CliConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent endpoint",
		Long: `Run the agent endpoint. POST /chat answers {"message", "model"} with the
reply as a JSON string, relaying each message to an OpenAI-compatible chat
completions API. Settings come from --config, RUNAGENT_* variables and .env.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(v, args.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			level, apply, err := serveLogLevel(cmd, cfg.LogLevel)
			if err != nil {
				return err
			}
			if apply {
				logging.InitLogger(level)
			}

			ln, err := net.Listen("tcp", cfg.ListenAddress)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, ln)
		},
	}

	args = config.BindServeFlags(cmd.Flags(), v)
	return cmd
}

// serveLogLevel decides whether the configured log_level replaces the level set
// by the root command. An explicit serve --log_level always applies; otherwise
// the root --log-level or --debug, when given, is kept.
func serveLogLevel(cmd *cobra.Command, configured string) (logrus.Level, bool, error) {
	flags := cmd.Flags()
	if !flags.Changed("log_level") && (flags.Changed("log-level") || flags.Changed("debug")) {
		return 0, false, nil
	}
	level, err := logging.ParseLevel(configured)
	if err != nil {
		return 0, false, err
	}
	return level, true, nil
}

// serve runs the agent endpoint on ln until ctx is done, then drains
// in-flight requests.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	store, err := cache.New(cfg.Cache)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	cm := manager.NewConcurrencyManager(cfg.Models, cfg.DefaultSize, cfg.QueueTimeout)
	defer cm.Shutdown()

	upstream := backend.NewBackendClient(cfg.APIRoot, cfg.APIKey, cfg.UpstreamTimeout)
	h := handler.NewChatHandler(cm, upstream, store, cfg.DefaultModel, cfg.UpstreamTimeout)

	server := &http.Server{
		Handler:           handler.NewRouter(h, cfg.CORSOrigins),
		ReadHeaderTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s (upstream %s, cache %s)", ln.Addr(), cfg.APIRoot, cfg.Cache.Backend)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infoln("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
