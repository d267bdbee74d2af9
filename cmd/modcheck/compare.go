package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/sheet"
)

// comparison is the JSON shape of the compare command.
type comparison struct {
	Result  *core.ComparisonResult `json:"result"`
	Metrics []core.MetricRow       `json:"metrics"`
}

func newCompareCmd(opts *options) *cobra.Command {
	var (
		profile string
		field   string
		joinKey string
	)

	cmd := &cobra.Command{
		Use:   "compare <first> <second>",
		Short: "Join two moderation reports on a key column and compare them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.Lookup(profile)
			if err != nil {
				return err
			}
			f, err := core.ParseCompareField(field)
			if err != nil {
				return err
			}

			tables := make([]*sheet.Table, len(args))
			for i, path := range args {
				if tables[i], err = readTable(path); err != nil {
					return err
				}
			}

			co := core.CompareOptions{Required: p.Required, JoinKey: joinKey, Field: f}
			if f == core.FieldIssueCategory {
				if co.Classifier, err = opts.classifier(); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			res, err := core.Compare(ctx, tables[0], tables[1], co)
			if err != nil {
				return err
			}
			left, err := core.Summarize(ctx, tables[0], core.SummaryOptions{})
			if err != nil {
				return err
			}
			right, err := core.Summarize(ctx, tables[1], core.SummaryOptions{})
			if err != nil {
				return err
			}

			out := comparison{Result: res, Metrics: core.CompareMetrics(left, right)}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return renderComparison(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", core.DefaultProfile, "analysis profile")
	cmd.Flags().StringVar(&field, "field", string(core.FieldIssueStatus), "what to compare: status or category")
	cmd.Flags().StringVar(&joinKey, "join-key", core.DefaultJoinKey, "column to join the reports on")
	return cmd
}
