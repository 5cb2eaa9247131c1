package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ai-risk-eval/backend/internal/catalog"
	"ai-risk-eval/backend/internal/modelcard"
	"ai-risk-eval/backend/internal/report"
	"ai-risk-eval/backend/internal/scoring"
)

var version = "0.1.0"

type options struct {
	catalogPath string
	now         func() time.Time
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&options{now: time.Now})
}

func buildRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "checker",
		Short:         "Classify AI systems against the EU AI Act rule catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "rule catalog file (default: embedded)")

	root.AddCommand(classifyCmd(opts))
	root.AddCommand(cardCmd(opts))
	root.AddCommand(catalogCmd())
	return root
}

func (o *options) engine() (*scoring.Engine, error) {
	cat, err := catalog.Open(o.catalogPath)
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(cat)
}

func classifyCmd(opts *options) *cobra.Command {
	var flags []string
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Classify a free-text system description and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			result := engine.Evaluate(strings.Join(args, " "), nil, flags)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringSliceVar(&flags, "flag", nil, "domain flags such as llm (repeatable)")
	return cmd
}

func cardCmd(opts *options) *cobra.Command {
	var (
		isLLM bool
		out   string
	)
	cmd := &cobra.Command{
		Use:   "card <model-card-file>",
		Short: "Evaluate a model card and render the compliance report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read model card: %w", err)
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}

			card := modelcard.Parse(string(data))
			var flags []string
			if isLLM {
				flags = []string{"llm"}
			}
			result := engine.Evaluate(card.Purpose, card.Capabilities(isLLM), flags)
			text := report.Render(report.Input{
				Name:        card.Name,
				Description: card.Purpose,
				Result:      result,
				GeneratedAt: opts.now(),
			})

			if out != "" {
				if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", out)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&isLLM, "llm", false, "the system is a large language model")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the report to this file")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect rule catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Load a catalog file and report its version and fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "catalog:     %s\n", cat.Name())
			fmt.Fprintf(w, "version:     %s\n", cat.Version())
			fmt.Fprintf(w, "fingerprint: %s\n", cat.Fingerprint())
			for _, c := range []catalog.Category{catalog.Prohibited, catalog.Domain, catalog.HighRisk, catalog.LimitedRisk, catalog.MinimalRisk} {
				fmt.Fprintf(w, "rules %-12s %d\n", c+":", cat.Counts()[c])
			}
			return nil
		},
	})
	return cmd
}
