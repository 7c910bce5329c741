package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type placeholderOutput struct {
	Name    string `yaml:"name"`
	Ordinal int    `yaml:"ordinal"`
	Offset  int    `yaml:"offset"`
}

func newPlaceholdersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders <sql>",
		Short: "List the distinct placeholders of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, err := opts.binder()
			if err != nil {
				return err
			}

			out := []placeholderOutput{}
			for p := range b.Placeholders(args[0]) {
				out = append(out, placeholderOutput{Name: p.Name, Ordinal: p.Ordinal, Offset: p.Offset})
			}
			return writeYAML(cmd, out)
		},
	}
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
