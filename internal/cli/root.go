// Package cli implements the unibot command line.
package cli

import (
	"github.com/amanullahtanweer/unibot/internal/config"
	"github.com/amanullahtanweer/unibot/internal/logging"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// App holds what commands share: terminal detection and, once the config is
// loaded, the service injector.
type App struct {
	IsInteractive func() bool
	Version       string

	configPath string
	logLevel   string
	injector   *do.Injector
}

// NewRootCmd creates the top-level "unibot" command and registers all
// subcommands against the provided App. Without a subcommand it starts a
// chat.
func NewRootCmd(app *App) *cobra.Command {
	chat := newChatCmd(app)

	root := &cobra.Command{
		Use:           "unibot",
		Short:         "Free-text campus assistant for studies, sports and social life",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          chat.RunE,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default "+config.DefaultPath+" when present)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		chat,
		newServeCmd(app),
		newClassifyCmd(app),
		newEventsCmd(app),
		newRecommendCmd(app),
		newDatasetCmd(app),
		newVersionCmd(app),
	)

	return root
}

// setup loads the configuration, installs logging and registers the
// services. Services are built lazily, so commands that never touch the
// dataset never load it.
func (app *App) setup(cmd *cobra.Command) error {
	if err := app.Close(); err != nil {
		return err
	}
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	if app.logLevel != "" {
		cfg.Log.Level = app.logLevel
	}
	if err := logging.Init(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
		return err
	}

	app.injector = newInjector(cfg)
	return nil
}

// Close shuts down the services registered by the last command, whether it
// succeeded or not. It is safe to call more than once.
func (app *App) Close() error {
	if app.injector == nil {
		return nil
	}
	err := app.injector.Shutdown()
	app.injector = nil
	return err
}

func (app *App) interactive() bool {
	return app.IsInteractive != nil && app.IsInteractive()
}
