package classifier

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/moderation/internal/core"
)

// Backend names accepted in configuration.
const (
	BackendNone    = "none"
	BackendKeyword = "keyword"
	BackendGenAI   = "genai"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	APIKey  string
	Model   string

	// Rules feed the keyword backend and provide the label set for genai.
	// Empty selects DefaultRules.
	Rules []core.CategoryRule
}

// New returns a lazily loaded handle for the configured backend, or nil for
// BackendNone.
func New(opts Options) (*Handle, error) {
	switch opts.Backend {
	case BackendNone:
		return nil, nil
	case "", BackendKeyword:
		return Static(BackendKeyword, NewKeyword(opts.Rules, "")), nil
	case BackendGenAI:
		labels := NewKeyword(opts.Rules, "").Labels()
		return NewHandle(BackendGenAI, func(ctx context.Context) (core.Classifier, error) {
			return NewGenAI(ctx, opts.APIKey, opts.Model, labels)
		}), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q (expected %s, %s or %s)",
			opts.Backend, BackendNone, BackendKeyword, BackendGenAI)
	}
}
