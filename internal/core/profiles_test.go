package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotRegistry restores the registry once the test finishes.
func snapshotRegistry(t *testing.T) {
	t.Helper()
	saved := All()
	t.Cleanup(func() {
		Clear()
		for _, p := range saved {
			Register(p)
		}
	})
}

func TestBuiltinProfiles(t *testing.T) {
	p, err := Lookup(DefaultProfile)
	require.NoError(t, err)
	assert.Equal(t, []string{ColIssues, ColBorderline, ColFailed}, p.Required)

	keys := make([]string, 0, ProfileCount())
	for _, p := range All() {
		keys = append(keys, p.Key)
	}
	assert.Subset(t, keys, []string{"moderation", "modules", "outcomes"})
	assert.IsIncreasing(t, keys)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("nope")
	assert.EqualError(t, err, `unknown profile: "nope"`)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	snapshotRegistry(t)

	assert.Panics(t, func() {
		Register(Profile{Key: "moderation", Label: "again", Required: []string{ColIssues}})
	})
}

func TestParseProfiles(t *testing.T) {
	data := []byte(`
profiles:
  - key: externals
    label: External examiner report
    required: [Module, Issues, Outcomes]
categories:
  - label: Marking
    keywords: [mark, rubric]
  - label: Deadlines
    keywords: [late]
`)

	pf, err := ParseProfiles(data)
	require.NoError(t, err)
	require.Len(t, pf.Profiles, 1)
	assert.Equal(t, "externals", pf.Profiles[0].Key)
	assert.Equal(t, []string{ColModule, ColIssues, ColOutcomes}, pf.Profiles[0].Required)
	require.Len(t, pf.Categories, 2)
	assert.Equal(t, []string{"mark", "rubric"}, pf.Categories[0].Keywords)
}

func TestParseProfiles_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "profiles: [unterminated"},
		{"missing key", "profiles:\n  - label: x\n    required: [Issues]\n"},
		{"key with space", "profiles:\n  - key: a b\n    label: x\n    required: [Issues]\n"},
		{"no required columns", "profiles:\n  - key: a\n    label: x\n    required: []\n"},
		{"blank required column", "profiles:\n  - key: a\n    label: x\n    required: ['']\n"},
		{"category without keywords", "categories:\n  - label: x\n"},
		{"duplicate keys", "profiles:\n  - {key: a, label: x, required: [Issues]}\n  - {key: a, label: y, required: [Issues]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfiles_OverridesBuiltins(t *testing.T) {
	snapshotRegistry(t)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - key: moderation
    label: Issues only
    required: [Issues]
  - key: externals
    label: External examiner report
    required: [Module, Issues]
`), 0o600))

	_, err := LoadProfiles(path)
	require.NoError(t, err)

	p, err := Lookup("moderation")
	require.NoError(t, err)
	assert.Equal(t, []string{ColIssues}, p.Required)

	_, err = Lookup("externals")
	assert.NoError(t, err)
}

func TestLoadProfiles_MissingFile(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
