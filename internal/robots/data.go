package robots

import (
	"net/url"

	"github.com/temoto/robotstxt"
)

// cacheEntry is one origin's resolved robots state: either a parsed
// ruleset, or the fail-open sentinel (nil ruleset) recorded when the
// robots.txt could not be fetched or parsed. The sentinel means
// "permit all" for the rest of the run.
type cacheEntry struct {
	ruleset *robotstxt.RobotsData
}

func (e cacheEntry) allows(u url.URL) bool {
	if e.ruleset == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return e.ruleset.TestAgent(path, "*")
}

// Origin returns the scheme://authority pair a robots.txt applies to.
func Origin(u url.URL) string {
	return u.Scheme + "://" + u.Host
}
