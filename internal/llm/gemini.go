package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for both classification and impact estimation.
const DefaultModel = "gemini-3-flash-preview"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50 // $0.50 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 3.00 // $3.00 per 1M output tokens (including thinking)
)

var errMissingAPIKey = errors.New("gemini api key is not set")

// Generation is the raw text a model produced for a structured request.
type Generation struct {
	Text  string
	Model string
	Usage Usage
}

// Model generates a JSON document matching a response schema.
type Model interface {
	GenerateJSON(ctx context.Context, prompt string, schema *ResponseSchema) (*Generation, error)
}

// ModelFactory builds a Model. It is called once per operation so that
// credential changes take effect on the next call.
type ModelFactory interface {
	NewModel(ctx context.Context) (Model, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(ctx context.Context) (Model, error)

func (f ModelFactoryFunc) NewModel(ctx context.Context) (Model, error) {
	return f(ctx)
}

// KeySource provides the current API key.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// KeySourceFunc adapts a function to KeySource.
type KeySourceFunc func(ctx context.Context) (string, error)

func (f KeySourceFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}

// EnvKeySource reads the named environment variable on every call.
func EnvKeySource(name string) KeySource {
	return KeySourceFunc(func(ctx context.Context) (string, error) {
		return os.Getenv(name), nil
	})
}

// StaticKey always returns key.
func StaticKey(key string) KeySource {
	return KeySourceFunc(func(ctx context.Context) (string, error) {
		return key, nil
	})
}

// GeminiFactory creates Gemini-backed models bound to the key that is
// current at call time.
type GeminiFactory struct {
	keys       KeySource
	model      string
	baseURL    string
	httpClient *http.Client
}

// GeminiOption configures a GeminiFactory.
type GeminiOption func(*GeminiFactory)

// WithModel overrides the Gemini model name.
func WithModel(name string) GeminiOption {
	return func(f *GeminiFactory) {
		if name != "" {
			f.model = name
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) GeminiOption {
	return func(f *GeminiFactory) {
		f.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the Gemini SDK.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(f *GeminiFactory) {
		f.httpClient = c
	}
}

// NewGeminiFactory creates a factory that reads the API key from keys on
// every NewModel call.
func NewGeminiFactory(keys KeySource, opts ...GeminiOption) *GeminiFactory {
	f := &GeminiFactory{
		keys:  keys,
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ModelName returns the configured model name.
func (f *GeminiFactory) ModelName() string {
	return f.model
}

// NewModel implements ModelFactory. The client is never cached.
func (f *GeminiFactory) NewModel(ctx context.Context) (Model, error) {
	key, err := f.keys.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read api key: %w", err)
	}
	if key == "" {
		return nil, errMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.httpClient,
	}
	if f.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: f.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiModel{client: client, name: f.model}, nil
}

type geminiModel struct {
	client *genai.Client
	name   string
}

// GenerateJSON requests a JSON response constrained by schema.
func (g *geminiModel) GenerateJSON(ctx context.Context, prompt string, schema *ResponseSchema) (*Generation, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema.GenaiSchema(),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.name, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, fmt.Errorf("gemini %s request failed: %w", schema.Name, err)
	}

	gen := &Generation{Model: g.name}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return gen, nil
	}
	gen.Text = result.Text()

	if result.UsageMetadata != nil {
		gen.Usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		gen.Usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		gen.Usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		gen.Usage.CostUSD = calculateGeminiCost(gen.Usage.InputTokens, gen.Usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.name).
		Str("schema", schema.ID()).
		Int64("inputTokens", gen.Usage.InputTokens).
		Int64("outputTokens", gen.Usage.OutputTokens).
		Float64("costUSD", gen.Usage.CostUSD).
		Msg("structured llm call")

	return gen, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
