package core

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when a request names no profile.
const DefaultProfile = "moderation"

func init() {
	Register(Profile{
		Key:         "moderation",
		Label:       "Moderation summary",
		Description: "Issue notes with borderline and failed student counts.",
		Required:    []string{ColIssues, ColBorderline, ColFailed},
	})
	Register(Profile{
		Key:         "modules",
		Label:       "Module moderation",
		Description: "Per-module issue notes and student counts, comparable by Module.",
		Required:    []string{ColModule, ColIssues, ColBorderline, ColFailed},
	})
	Register(Profile{
		Key:         "outcomes",
		Label:       "Module outcomes",
		Description: "Per-module issue notes with free-text outcomes.",
		Required:    []string{ColModule, ColIssues, ColOutcomes},
	})
}

// CategoryRule maps issue-note keywords to a category label.
type CategoryRule struct {
	Label    string   `yaml:"label" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"required,min=1,dive,required"`
}

// ProfileFile is the on-disk format for extra profiles and category rules.
//
//	profiles:
//	  - key: externals
//	    label: External examiner report
//	    required: [Module, Issues, Outcomes]
//	categories:
//	  - label: Marking
//	    keywords: [mark, grading, rubric]
type ProfileFile struct {
	Profiles   []Profile      `yaml:"profiles" validate:"dive"`
	Categories []CategoryRule `yaml:"categories" validate:"dive"`
}

var (
	validate = newValidator()

	profileKeyRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Keys travel in form values and URLs.
	_ = v.RegisterValidation("profilekey", func(fl validator.FieldLevel) bool {
		return profileKeyRegex.MatchString(fl.Field().String())
	})
	return v
}

// LoadProfiles reads a ProfileFile, validates it and registers its profiles,
// overwriting built-ins with the same key. The category rules are returned
// for the caller to hand to a keyword classifier.
func LoadProfiles(path string) (*ProfileFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	pf, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, p := range pf.Profiles {
		Replace(p)
	}
	return pf, nil
}

// ParseProfiles decodes and validates a ProfileFile without registering it.
func ParseProfiles(data []byte) (*ProfileFile, error) {
	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if err := validate.Struct(pf); err != nil {
		return nil, fmt.Errorf("invalid profiles: %w", err)
	}

	seen := make(map[string]bool, len(pf.Profiles))
	for _, p := range pf.Profiles {
		if seen[p.Key] {
			return nil, fmt.Errorf("invalid profiles: duplicate key %q", p.Key)
		}
		seen[p.Key] = true
	}
	return &pf, nil
}
