// Command papctl runs catalog maintenance against the configured store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/config"
	"github.com/pap-cedram/pap-backend/internal/bootstrap"
	"github.com/pap-cedram/pap-backend/internal/catalog/labels"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dictionary string

	root := &cobra.Command{
		Use:          "papctl",
		Short:        "Maintenance tool for the PAP archive catalog",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dictionary, "dictionary", "", "YAML correction table (overrides DICTIONARY_PATH)")

	root.AddCommand(
		newNormalizeCmd(&dictionary),
		newAuditCmd(&dictionary),
		newRenormalizeCmd(&dictionary),
	)
	return root
}

func newNormalizeCmd(dictionary *string) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <text>...",
		Short: "Print the canonical form of each tag string",
		Long: `Print the canonical form of each argument, one per line. Tags are
corrected against the dictionary, de-duplicated and sorted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			norm := labels.Default()
			if *dictionary != "" {
				dict, err := labels.LoadDictionary(*dictionary)
				if err != nil {
					return err
				}
				norm = labels.New(dict)
			}
			for _, arg := range args {
				fmt.Fprintln(cmd.OutOrStdout(), norm.Normalize(arg))
			}
			return nil
		},
	}
}

func newAuditCmd(dictionary *string) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report orphans, duplicate names and missing columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := openCatalog(cmd.Context(), *dictionary)
			if err != nil {
				return err
			}
			defer catalog.Close()

			report, err := catalog.Service.Audit(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if strict && !report.Clean() {
				return fmt.Errorf("audit found problems")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the audit is not clean")
	return cmd
}

func newRenormalizeCmd(dictionary *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "renormalize",
		Short: "Rewrite stored tags and periods in canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := openCatalog(cmd.Context(), *dictionary)
			if err != nil {
				return err
			}
			defer catalog.Close()

			if dryRun {
				report, err := catalog.Service.Audit(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cells would change\n", report.NonCanonical)
				return nil
			}

			changed, err := catalog.Service.Renormalize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d cells changed\n", changed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count the cells that would change")
	return cmd
}

func openCatalog(ctx context.Context, dictionary string) (*bootstrap.Catalog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dictionary != "" {
		cfg.Catalog.DictionaryPath = dictionary
	}

	logger, err := bootstrap.NewLogger(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	return bootstrap.OpenCatalog(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
