package expert

import (
	"context"
	"sync"

	"github.com/docfoundry/docfoundry/core"
)

// AnalyzeAll issues the domain analyses concurrently and waits for all of
// them: a fan-out/fan-in barrier, not a race. No domain result is discarded
// because another finished first; failed domains come back as degraded
// results alongside the successful ones.
//
// onResult, when non-nil, is invoked from the worker goroutine as each
// domain returns; callers use it to advance session state incrementally. It
// must be safe for concurrent invocation.
func (r *Runner) AnalyzeAll(
	ctx context.Context,
	domains []core.DomainTag,
	query string,
	onResult func(core.DomainResult),
) map[core.DomainTag]core.DomainResult {
	results := make(map[core.DomainTag]core.DomainResult, len(domains))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, domain := range domains {
		wg.Add(1)
		go func(d core.DomainTag) {
			defer wg.Done()
			res := r.Analyze(ctx, d, query)
			mu.Lock()
			results[d] = res
			mu.Unlock()
			if onResult != nil {
				onResult(res)
			}
		}(domain)
	}
	wg.Wait()

	return results
}
