package priority

import "math"

/*
Priority scoring for frontier admission.

The score diversifies the crawl across hosts and registered-domain groups:
both terms fall monotonically in their argument, so a host that has already
contributed pages, or a registered domain that already spans many hosts, is
penalized relative to unexplored ones.

The score is computed once at admission and never revised; the frontier
does not re-prioritize queued entries.
*/

// Compute returns the admission score for a link given the number of pages
// already crawled on its host (domainCrawlCount) and the number of distinct
// hosts already seen under its registered domain (superdomainDomainCount).
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Strictly decreasing in both arguments
func Compute(domainCrawlCount int, superdomainDomainCount int) float64 {
	return 1/math.Log(2+float64(domainCrawlCount)) + 1/(1+float64(superdomainDomainCount))
}
