// Package expert runs domain-specific analyses of a user query against the
// inference backend. Each domain wraps the shared client with its own prompt
// template and a tolerant parser that extracts structured findings.
//
// A Runner never fails past its own boundary: on any inference error it
// returns a DomainResult with Success=false carrying the failure reason, so
// the orchestrator can treat a failed domain as a degraded-but-continuing
// signal rather than a fatal one.
package expert

import (
	"context"
	"fmt"
	"time"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/internal/util"
	"github.com/docfoundry/docfoundry/logging"
)

// Domain expertise blurbs injected into the shared prompt template. Unknown
// tags get a generic engineering persona so a configured extra domain still
// produces a usable prompt.
var domainPersonas = map[core.DomainTag]string{
	core.DomainMechanical:  "a senior mechanical engineer focused on structures, materials, thermal behavior and manufacturability",
	core.DomainElectrical:  "a senior electrical engineer focused on power, sensing, control circuitry and safety",
	core.DomainProgramming: "a senior software engineer focused on architecture, data flow, interfaces and maintainability",
}

const analysisPromptTemplate = `You are {{.Persona}}.

Analyze the following engineering request from your {{.Domain}} perspective:

{{.Query}}

Structure your answer with these two headings:

KEY FINDINGS:
- one finding per bullet

RECOMMENDATIONS:
- one recommendation per bullet`

// Options configure a Runner.
type Options struct {
	// Timeout bounds each inference round trip.
	Timeout time.Duration
	// Temperature is forwarded to the backend.
	Temperature float64
	// Logger receives per-domain progress; defaults to no-op.
	Logger logging.Logger
}

// Runner fans a query out to the inference backend once per domain and
// parses the responses. Safe for concurrent use.
type Runner struct {
	client      inference.Client
	timeout     time.Duration
	temperature float64
	logger      logging.Logger
}

// NewRunner creates a Runner with optional overrides.
func NewRunner(client inference.Client, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Timeout:     60 * time.Second,
		Temperature: 0.7,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		client:      client,
		timeout:     opts.Timeout,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
}

// Analyze runs a single domain analysis. Inference failures are absorbed
// into a Success=false result.
func (r *Runner) Analyze(ctx context.Context, domain core.DomainTag, query string) core.DomainResult {
	prompt, err := r.buildPrompt(domain, query)
	if err != nil {
		return failedResult(domain, fmt.Errorf("build prompt: %w", err))
	}

	start := time.Now()
	text, err := r.client.Complete(ctx, prompt, inference.CallOptions{
		Timeout:     r.timeout,
		Temperature: r.temperature,
	})
	if err != nil {
		r.logger.Warn("domain analysis degraded", "domain", domain, "error", err)
		return failedResult(domain, err)
	}
	r.logger.Debug("domain analysis completed", "domain", domain, "duration", time.Since(start))

	findings, recommendations := Parse(text)
	return core.DomainResult{
		Domain:          domain,
		RawText:         text,
		KeyFindings:     findings,
		Recommendations: recommendations,
		Success:         true,
	}
}

func (r *Runner) buildPrompt(domain core.DomainTag, query string) (string, error) {
	persona, ok := domainPersonas[domain]
	if !ok {
		persona = fmt.Sprintf("a senior %s engineer", domain)
	}
	return util.RenderTemplate(analysisPromptTemplate, map[string]any{
		"Persona": persona,
		"Domain":  string(domain),
		"Query":   query,
	})
}

func failedResult(domain core.DomainTag, err error) core.DomainResult {
	return core.DomainResult{
		Domain:          domain,
		RawText:         fmt.Sprintf("analysis failed: %v", err),
		KeyFindings:     []string{},
		Recommendations: []string{},
		Success:         false,
	}
}
