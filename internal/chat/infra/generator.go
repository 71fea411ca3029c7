// Package infra — generator.go implementa port.TextGenerator sobre um
// provedor de LLM (OpenAI-compatível ou Anthropic).
//
// Toda chamada passa por, nesta ordem:
//  1. rate limiter (x/time/rate): segura o ritmo de chamadas ao provedor
//  2. bulkhead: limita chamadas simultâneas
//  3. circuit breaker + retry (resilience.Call): breaker aberto falha na hora
//
// Qualquer erro volta como ErrExternalService; quem chama (extrator e
// compositor) degrada para o modo determinístico.
package infra

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/resilience"
)

// tracer é o tracer OpenTelemetry para o módulo chat/infra.
var tracer = otel.Tracer("chat/infra")

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"

	defaultMaxTokens = 512
)

// completion é a resposta crua de um provedor.
type completion struct {
	text             string
	promptTokens     int
	completionTokens int
}

// provider é a chamada de um prompt único, sem streaming.
type provider interface {
	complete(ctx context.Context, prompt string) (*completion, error)
	name() string
}

// TokenRecorder recebe o consumo de tokens de cada chamada bem-sucedida.
type TokenRecorder interface {
	RecordTokens(prompt, completion int)
}

// GeneratorConfig escolhe o provedor e os limites de uso.
type GeneratorConfig struct {
	Provider       string // openai | anthropic
	APIKey         string
	BaseURL        string // só OpenAI-compatível (ex.: OpenRouter, Azure proxy)
	Model          string
	RPS            float64 // <= 0 desliga o rate limit
	Burst          int
	MaxConcurrency int
	HTTPClient     *http.Client
}

// Generator implementa port.TextGenerator.
type Generator struct {
	p        provider
	limiter  *rate.Limiter
	bulkhead *resilience.Bulkhead
	cb       *gobreaker.CircuitBreaker
	cfg      resilience.Config
	tokens   TokenRecorder
	logger   *zap.Logger
}

// NewGenerator monta o Generator para o provedor configurado.
func NewGenerator(gc GeneratorConfig, cb *gobreaker.CircuitBreaker, cfg resilience.Config, tokens TokenRecorder, logger *zap.Logger) (*Generator, error) {
	if gc.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required for provider %q", gc.Provider)
	}

	var p provider
	switch strings.ToLower(gc.Provider) {
	case ProviderOpenAI:
		p = newOpenAIProvider(gc.APIKey, gc.BaseURL, gc.Model, gc.HTTPClient)
	case ProviderAnthropic:
		p = newAnthropicProvider(gc.APIKey, gc.Model, gc.HTTPClient)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", gc.Provider)
	}

	return newGenerator(p, gc, cb, cfg, tokens, logger), nil
}

func newGenerator(p provider, gc GeneratorConfig, cb *gobreaker.CircuitBreaker, cfg resilience.Config, tokens TokenRecorder, logger *zap.Logger) *Generator {
	limit := rate.Inf
	if gc.RPS > 0 {
		limit = rate.Limit(gc.RPS)
	}
	burst := gc.Burst
	if burst <= 0 {
		burst = 1
	}
	maxConc := gc.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 8
	}
	return &Generator{
		p:        p,
		limiter:  rate.NewLimiter(limit, burst),
		bulkhead: resilience.NewBulkhead(maxConc),
		cb:       cb,
		cfg:      cfg,
		tokens:   tokens,
		logger:   logger,
	}
}

// Generate envia o prompt e devolve o texto gerado.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.p.name()),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		return "", &maindomain.ErrExternalService{Service: "llm/" + g.p.name(), Err: err}
	}
	if err := g.bulkhead.Acquire(ctx); err != nil {
		return "", &maindomain.ErrExternalService{Service: "llm/" + g.p.name(), Err: err}
	}
	defer g.bulkhead.Release()

	var out *completion
	err := resilience.Call(ctx, g.cb, g.cfg, func() error {
		c, err := g.p.complete(ctx, prompt)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		g.logger.Warn("llm call failed",
			zap.String("provider", g.p.name()),
			zap.Error(err),
		)
		return "", &maindomain.ErrExternalService{Service: "llm/" + g.p.name(), Err: err}
	}

	if g.tokens != nil {
		g.tokens.RecordTokens(out.promptTokens, out.completionTokens)
	}
	span.SetAttributes(attribute.Int("llm.completion_tokens", out.completionTokens))

	return out.text, nil
}
