package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGenAIModel is used when no model is configured.
const DefaultGenAIModel = "gemini-2.5-flash"

// ErrUnexpectedLabel is returned when the model answers with something
// outside the configured label set.
var ErrUnexpectedLabel = errors.New("unexpected label from model")

const systemPrompt = `You categorise issue notes written by university module moderators.
Answer with exactly one of these categories and nothing else:
%s
Use %q when no other category fits.`

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI classifies issue notes with a Gemini model constrained to a fixed
// label set.
type GenAI struct {
	models contentGenerator
	model  string
	labels map[string]string // lowercased -> canonical
	config *genai.GenerateContentConfig
}

// NewGenAI connects to the Gemini API. labels must include the fallback the
// model should use for notes that fit nowhere else; it is taken to be the
// last label.
func NewGenAI(ctx context.Context, apiKey, model string, labels []string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAI(client.Models, model, labels)
}

func newGenAI(models contentGenerator, model string, labels []string) (*GenAI, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("GenAI classifier needs at least one label")
	}
	if model == "" {
		model = DefaultGenAIModel
	}

	canonical := make(map[string]string, len(labels))
	for _, l := range labels {
		canonical[strings.ToLower(l)] = l
	}

	prompt := fmt.Sprintf(systemPrompt, "- "+strings.Join(labels, "\n- "), labels[len(labels)-1])

	return &GenAI{
		models: models,
		model:  model,
		labels: canonical,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "text/x.enum",
			ResponseSchema: &genai.Schema{
				Type: genai.TypeString,
				Enum: labels,
			},
		},
	}, nil
}

// Classify implements core.Classifier.
func (g *GenAI) Classify(ctx context.Context, text string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), g.config)
	if err != nil {
		return "", fmt.Errorf("GenAI classify failed: %w", err)
	}

	answer := strings.TrimSpace(resp.Text())
	label, ok := g.labels[strings.ToLower(answer)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedLabel, answer)
	}
	return label, nil
}
