package robots

import "net/url"

/*
Responsibilities

- Fetch robots.txt once per origin
- Cache decisions for the crawl duration
- Fail open: any fetch or parse failure permits the origin

Robots checks occur before a URL enters the frontier and again after
redirect resolution, so a disallowed URL is never admitted, and a page
that a redirect lands on behind a disallow rule is dropped after the
fetch without being logged or accounted.
*/

// Policy answers whether a URL may be crawled under the robots-exclusion
// rules of its origin. Implementations must be safe for concurrent use.
type Policy interface {
	IsAllowed(u url.URL) bool
}
