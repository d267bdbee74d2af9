package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moderation/internal/core"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		profile    string
		categorize bool
		critical   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Summarise one moderation report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.Lookup(profile)
			if err != nil {
				return err
			}
			tbl, err := readTable(args[0])
			if err != nil {
				return err
			}

			so := core.SummaryOptions{Required: p.Required, CriticalCases: critical}
			if categorize {
				if so.Classifier, err = opts.classifier(); err != nil {
					return err
				}
			}

			s, err := core.Summarize(cmd.Context(), tbl, so)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			return renderSummary(cmd.OutOrStdout(), p, s)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", core.DefaultProfile, "analysis profile")
	cmd.Flags().BoolVar(&categorize, "categorize", false, "bucket issue notes into categories")
	cmd.Flags().BoolVar(&critical, "critical", false, "list failed/borderline modules that reported an issue")
	return cmd
}
