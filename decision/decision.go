// Package decision chooses the deliverable document type for a conversation
// from the combined domain analyses. The stage never fails the pipeline: any
// backend error or unparseable response falls back to the deterministic
// default type with UsedFallback recorded for observability.
package decision

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/logging"
)

// Options configure a Stage.
type Options struct {
	Timeout     time.Duration
	Temperature float64
	Logger      logging.Logger
}

// Stage is the workflow decision stage.
type Stage struct {
	client      inference.Client
	timeout     time.Duration
	temperature float64
	logger      logging.Logger
}

// NewStage creates a decision stage with optional overrides. The decision
// call runs with a low temperature: the answer space is a closed enum and
// creative phrasing only hurts parseability.
func NewStage(client inference.Client, optFns ...func(o *Options)) *Stage {
	opts := Options{
		Timeout:     60 * time.Second,
		Temperature: 0.2,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Stage{
		client:      client,
		timeout:     opts.Timeout,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
}

// Decide picks a document type from the domain results. Only successful
// analyses contribute to the prompt; when every domain failed the model is
// not consulted at all and the default type is returned directly.
func (s *Stage) Decide(ctx context.Context, query string, results map[core.DomainTag]core.DomainResult) core.WorkflowDecision {
	prompt, anySucceeded := buildPrompt(query, results)
	if !anySucceeded {
		s.logger.Warn("all domain analyses failed, decision falls back without a model call")
		return fallbackDecision("no successful domain analysis available")
	}

	response, err := s.client.Complete(ctx, prompt, inference.CallOptions{
		Timeout:     s.timeout,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn("decision model call failed, using fallback", "error", err)
		return fallbackDecision(fmt.Sprintf("model call failed: %v", err))
	}

	docType, ok := core.MatchDocumentType(response)
	if !ok {
		s.logger.Warn("decision response did not uniquely name a document type", "response", response)
		return fallbackDecision(fmt.Sprintf("unparseable model choice: %q", strings.TrimSpace(response)))
	}

	return core.WorkflowDecision{
		DocumentType: docType,
		Rationale:    strings.TrimSpace(response),
		UsedFallback: false,
	}
}

func fallbackDecision(rationale string) core.WorkflowDecision {
	return core.WorkflowDecision{
		DocumentType: core.DefaultDocumentType,
		Rationale:    rationale,
		UsedFallback: true,
	}
}

// buildPrompt summarizes the successful domain results and asks for exactly
// one of the canonical type names. Returns false when no domain succeeded.
func buildPrompt(query string, results map[core.DomainTag]core.DomainResult) (string, bool) {
	var sb strings.Builder
	anySucceeded := false

	sb.WriteString("An engineering request was analyzed by domain experts.\n\n")
	sb.WriteString("Request: ")
	sb.WriteString(query)
	sb.WriteString("\n")

	// Stable iteration keeps prompts reproducible across runs.
	for _, domain := range core.DefaultDomains() {
		res, ok := results[domain]
		if !ok {
			continue
		}
		writeDomainSummary(&sb, res, &anySucceeded)
	}
	extras := make([]core.DomainTag, 0, len(results))
	for domain := range results {
		if isDefaultDomain(domain) {
			continue
		}
		extras = append(extras, domain)
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	for _, domain := range extras {
		writeDomainSummary(&sb, results[domain], &anySucceeded)
	}

	sb.WriteString("\nWhich single deliverable fits this request best?\n")
	sb.WriteString("Answer with exactly one word out of: ")
	for i, dt := range core.DocumentTypes() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(dt))
	}
	sb.WriteString(".\n")

	return sb.String(), anySucceeded
}

func writeDomainSummary(sb *strings.Builder, res core.DomainResult, anySucceeded *bool) {
	if !res.Success {
		return
	}
	*anySucceeded = true
	fmt.Fprintf(sb, "\n%s ANALYSIS:\n", strings.ToUpper(string(res.Domain)))
	fmt.Fprintf(sb, "Key findings: %s\n", strings.Join(res.KeyFindings, "; "))
	fmt.Fprintf(sb, "Recommendations: %s\n", strings.Join(res.Recommendations, "; "))
}

func isDefaultDomain(d core.DomainTag) bool {
	for _, dd := range core.DefaultDomains() {
		if d == dd {
			return true
		}
	}
	return false
}
