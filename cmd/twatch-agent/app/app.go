// Package app builds the twatch-agent command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/trailwatch-io/trailwatch/cmd/twatch-agent/app/options"
	"github.com/trailwatch-io/trailwatch/internal/engine"
	"github.com/trailwatch-io/trailwatch/internal/server"
	"github.com/trailwatch-io/trailwatch/pkg/log"
)

const (
	commandName = "twatch-agent"
	commandDesc = `The Trailwatch agent keeps an in-memory mirror of a trailer fleet in sync
with the backend: it maintains the push-channel subscription, applies
realtime deltas, issues commands (status changes, alarm resolution, media
downloads) and exposes the mirrored state on a local debug endpoint.`
)

// NewAgentCommand builds the root command with its flags and subcommands.
func NewAgentCommand() *cobra.Command {
	opts := options.NewAgentOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Launch a Trailwatch fleet agent",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(configFile, opts)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the agent configuration file.")
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(newStatusesCommand())
	return cmd
}

// loadConfig layers the configuration: defaults, then config file, then
// TWATCH_* environment variables, then explicit flags. The config file is
// watched so log-level changes apply without a restart.
func loadConfig(path string, opts *options.AgentOptions) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(commandName)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/trailwatch")
	}
	v.SetEnvPrefix("TWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := v.Unmarshal(opts); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("configuration file changed", "file", e.Name)
			if lvl := v.GetString("log.level"); lvl != "" {
				log.SetLevel(lvl)
			}
		})
		v.WatchConfig()
	}
	return nil
}

func run(opts *options.AgentOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	log.Init(opts.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.Config{
		Rest:  opts.Rest,
		Push:  opts.Push,
		Media: opts.Media,
	}, log.Std())
	srv := server.New(opts.Http, eng, log.Std())

	if identity := opts.Identity(); identity.Complete() {
		if err := eng.SignIn(ctx, identity); err != nil {
			log.Error(err, "initial sign-in failed, continuing anonymous")
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	log.Info("agent started")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Info("agent stopped")
		return nil
	}
	return err
}
