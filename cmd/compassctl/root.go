package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/minicompass/internal/version"
	minicompass "github.com/kailas-cloud/minicompass/pkg/sdk"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	url      string
	database string
	output   string
	timeout  time.Duration
}

func (o *globalOptions) client() (*minicompass.Client, error) {
	opts := []minicompass.Option{
		minicompass.WithTimeout(o.timeout),
		minicompass.WithUserAgent("compassctl/" + version.Version),
	}
	if o.database != "" {
		opts = append(opts, minicompass.WithDatabase(o.database))
	}
	return minicompass.New(o.url, opts...)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "compassctl",
		Short:         "minicompass command-line client",
		Long:          "compassctl browses and edits documents through a minicompass API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.output != outputJSON && opts.output != outputYAML {
				return fmt.Errorf("unknown output format %q (want json or yaml)", opts.output)
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(os.Stderr)

	defaultURL := os.Getenv("MINICOMPASS_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3000"
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&opts.url, "url", "u", defaultURL, "API base URL (env MINICOMPASS_URL)")
	pf.StringVarP(&opts.database, "db", "d", "", "database name (server default when empty)")
	pf.StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or yaml")
	pf.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newCollectionsCmd(opts),
		newListCmd(opts),
		newFindCmd(opts),
		newExistsCmd(opts),
		newDupCmd(opts),
		newInsertCmd(opts),
		newUpdateCmd(opts),
		newReplaceCmd(opts),
		newDeleteCmd(opts),
		newHealthCmd(opts),
		newVersionCmd(),
	)
	return root
}

// print renders v in the selected output format.
func (o *globalOptions) print(w io.Writer, v any) error {
	if o.output == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			hs, herr := c.Health(cmd.Context())
			if hs.Status != "" {
				if err := opts.print(cmd.OutOrStdout(), hs); err != nil {
					return err
				}
			}
			return herr
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "compassctl "+version.String())
		},
	}
}

func newCollectionsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "collections",
		Aliases: []string{"ls"},
		Short:   "List the collections of a database",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			names, err := c.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), names)
		},
	}
}
