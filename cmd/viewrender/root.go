package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewengine/pkg/config"
	"github.com/goliatone/go-viewengine/pkg/logging"
	"github.com/goliatone/go-viewengine/pkg/view"
)

type globalOptions struct {
	dir        string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "viewrender",
		Short: "Render and check Jinja-style view templates",
		Long: `viewrender renders templates from a view directory the same way the
application does, and checks that every template compiles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&opts.dir, "dir", "d", "", "template directory (default from config, then "+view.DefaultTemplatesDir+")")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "application config file; missing files are ignored")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

func (o *globalOptions) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logger.Level = o.logLevel
	}
	logger, err := logging.New(cfg.Logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger
	return nil
}

// settings returns the jinja initializer settings with the --dir override
// applied.
func (o *globalOptions) settings() (view.Settings, error) {
	settings, err := view.DecodeSettings(o.cfg.Initializer(view.InitializerName))
	if err != nil {
		return settings, err
	}
	if o.dir != "" {
		settings.TemplateDir = o.dir
	}
	if settings.TemplateDir == "" {
		settings.TemplateDir = view.DefaultTemplatesDir
	}
	return settings, nil
}
