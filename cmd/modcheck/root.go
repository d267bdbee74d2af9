package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moderation/internal/classifier"
	"github.com/JonMunkholm/moderation/internal/core"
	"github.com/JonMunkholm/moderation/internal/sheet"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	profilesFile string
	backend      string
	jsonOut      bool

	// rules come from the profiles file, when one is loaded.
	rules []core.CategoryRule
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "modcheck",
		Short:         "Analyse and compare moderation reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.profilesFile == "" {
				return nil
			}
			pf, err := core.LoadProfiles(opts.profilesFile)
			if err != nil {
				return err
			}
			opts.rules = pf.Categories
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.profilesFile, "profiles-file", os.Getenv("ANALYSIS_PROFILES_FILE"),
		"YAML file of extra profiles and category rules")
	flags.StringVar(&opts.backend, "classifier", envOr("CLASSIFIER_BACKEND", classifier.BackendKeyword),
		"issue classifier: none, keyword or genai")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newCompareCmd(opts),
		newProfilesCmd(opts),
	)
	return cmd
}

func newProfilesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the analysis profiles and the columns they require",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := core.All()
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), profiles)
			}
			return renderProfiles(cmd.OutOrStdout(), profiles)
		},
	}
}

// classifier builds the configured backend. The genai backend reads its key
// and model from the same variables as the server.
func (o *options) classifier() (core.Classifier, error) {
	h, err := classifier.New(classifier.Options{
		Backend: o.backend,
		APIKey:  envOr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		Model:   envOr("GEMINI_MODEL", classifier.DefaultGenAIModel),
		Rules:   o.rules,
	})
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, core.ErrNoClassifier
	}
	return h, nil
}

// readTable decodes a local .csv or .xlsx file.
func readTable(path string) (*sheet.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return sheet.Decode(filepath.Base(path), f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
