package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/config"
)

type options struct {
	configPath string
	dialect    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "parambind",
		Short: "Resolve named SQL parameters without guessing their types",
		Long: `parambind lists the @name placeholders of a query and shows how they bind.

Every placeholder is typed from the value you supply, or from an explicit
--type, never from table metadata.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVarP(&opts.dialect, "dialect", "d", "", "target dialect (overrides config)")

	root.AddCommand(newPlaceholdersCmd(opts), newBindCmd(opts))
	return root
}

// load reads the config and applies flag overrides.
func (o *options) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.dialect != "" {
		cfg.Dialect = o.dialect
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (o *options) binder() (*config.Config, *binder.Binder, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	b, err := cfg.NewBinder(logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}
