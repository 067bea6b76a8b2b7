package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// KeyReselector asks someone to provide a new API key. It is called in its
// own goroutine and its outcome is not observed.
type KeyReselector interface {
	RequestNewKey(ctx context.Context, cause error)
}

// KeyReselectorFunc adapts a function to KeyReselector.
type KeyReselectorFunc func(ctx context.Context, cause error)

func (f KeyReselectorFunc) RequestNewKey(ctx context.Context, cause error) {
	f(ctx, cause)
}

// Service implements Advisor on top of a ModelFactory.
type Service struct {
	models     ModelFactory
	reselector KeyReselector
	cache      AnalysisCache
	modelName  string // Part of every cache key
}

// modelNamer is implemented by factories that know which model they call.
type modelNamer interface {
	ModelName() string
}

var _ Advisor = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithKeyReselector sets the hook fired when the API rejects the key.
func WithKeyReselector(r KeyReselector) Option {
	return func(s *Service) {
		s.reselector = r
	}
}

// WithCache enables caching of successful model answers.
func WithCache(c AnalysisCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService creates a Service. models is consulted on every operation.
func NewService(models ModelFactory, opts ...Option) *Service {
	s := &Service{models: models}
	if n, ok := models.(modelNamer); ok {
		s.modelName = n.ModelName()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generate runs a single structured model call and decodes the answer into out.
func (s *Service) generate(ctx context.Context, prompt string, schema *ResponseSchema, out any) error {
	model, err := s.models.NewModel(ctx)
	if err != nil {
		return &CallError{Kind: KindClient, Err: err}
	}

	start := time.Now()
	gen, err := model.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return &CallError{Kind: modelErrorKind(err), Err: err}
	}

	log.Debug().
		Str("schema", schema.ID()).
		Dur("elapsed", time.Since(start)).
		Str("response", gen.Text).
		Msg("llm response received")

	return decodeResponse(gen.Text, schema, out)
}

// handleFailure logs a failed step and fires the key reselection hook when
// the API reported the key as not found.
func (s *Service) handleFailure(ctx context.Context, op string, err error) {
	kind := KindOf(err)
	log.Error().Err(err).Str("op", op).Str("kind", string(kind)).Msg("llm call failed, using fallback")

	if kind != KindKeyNotFound || s.reselector == nil {
		return
	}

	log.Warn().Str("op", op).Msg("api key rejected, requesting key reselection")
	hookCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("recovered from panic in key reselection hook")
			}
		}()
		s.reselector.RequestNewKey(hookCtx, err)
	}()
}
