package testutil

import (
	"fmt"
	"time"

	"github.com/docfoundry/docfoundry/core"
)

// Event returns a progress event with sensible defaults for tests that only
// care about identity and ordering.
func Event(conversationID string, seq int) core.ProgressEvent {
	return core.ProgressEvent{
		ConversationID: conversationID,
		Seq:            seq,
		Step:           core.StepPipeline,
		Status:         core.StatusStarted,
		Detail:         fmt.Sprintf("event %d", seq),
		Timestamp:      time.Now().UTC(),
	}
}

// SuccessfulResult returns a passing domain result with one finding and one
// recommendation.
func SuccessfulResult(domain core.DomainTag) core.DomainResult {
	return core.DomainResult{
		Domain:          domain,
		RawText:         "KEY FINDINGS:\n- finding\n\nRECOMMENDATIONS:\n- recommendation",
		KeyFindings:     []string{"finding"},
		Recommendations: []string{"recommendation"},
		Success:         true,
	}
}

// FailedResult returns a degraded domain result carrying reason.
func FailedResult(domain core.DomainTag, reason string) core.DomainResult {
	return core.DomainResult{
		Domain:  domain,
		RawText: reason,
		Success: false,
	}
}

// AllSuccessful returns one successful result per default domain.
func AllSuccessful() map[core.DomainTag]core.DomainResult {
	results := make(map[core.DomainTag]core.DomainResult)
	for _, d := range core.DefaultDomains() {
		results[d] = SuccessfulResult(d)
	}
	return results
}
