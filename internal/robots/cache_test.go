package robots

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

func newTestRobot(t *testing.T, handler http.Handler) (*CachedRobot, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	recorder := metadata.NewRecorder(false)
	robot := NewCachedRobotWithClient(&recorder, "query-crawler-test", server.Client())
	return robot, server
}

func serverURL(t *testing.T, server *httptest.Server, path string) url.URL {
	t.Helper()
	u, err := url.Parse(server.URL + path)
	require.NoError(t, err)
	return *u
}

func TestIsAllowedHonorsDisallowRules(t *testing.T) {
	robot, server := newTestRobot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))

	assert.True(t, robot.IsAllowed(serverURL(t, server, "/public/page")))
	assert.False(t, robot.IsAllowed(serverURL(t, server, "/private/page")))
	assert.False(t, robot.IsAllowed(serverURL(t, server, "/private")))
}

func TestIsAllowedFetchesOncePerOrigin(t *testing.T) {
	var hits atomic.Int64
	robot, server := newTestRobot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow:\n"))
	}))

	for i := 0; i < 10; i++ {
		assert.True(t, robot.IsAllowed(serverURL(t, server, "/page")))
	}
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, 1, robot.CachedOrigins())
}

func TestIsAllowedFailsOpenOnServerError(t *testing.T) {
	var hits atomic.Int64
	robot, server := newTestRobot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	// 500 resolves to the fail-open sentinel...
	assert.True(t, robot.IsAllowed(serverURL(t, server, "/anything")))
	// ...and no further requests are made for the origin.
	assert.True(t, robot.IsAllowed(serverURL(t, server, "/other")))
	assert.Equal(t, int64(1), hits.Load())
}

func TestIsAllowedFailsOpenOnMissingRobots(t *testing.T) {
	robot, server := newTestRobot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.True(t, robot.IsAllowed(serverURL(t, server, "/page")))
}

func TestIsAllowedFailsOpenOnUnreachableOrigin(t *testing.T) {
	recorder := metadata.NewRecorder(false)
	robot := NewCachedRobotWithClient(&recorder, "query-crawler-test", &http.Client{})

	u, err := url.Parse("http://127.0.0.1:1/page")
	require.NoError(t, err)
	assert.True(t, robot.IsAllowed(*u))
}

func TestConcurrentQueriesShareOneFetch(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	robot, server := newTestRobot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))

	const callers = 16
	var wg sync.WaitGroup
	results := make([]bool, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = robot.IsAllowed(serverURL(t, server, "/public"))
		}()
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), hits.Load(), "concurrent callers must share one in-flight fetch")
	for _, allowed := range results {
		assert.True(t, allowed)
	}
}

func TestOrigin(t *testing.T) {
	u, err := url.Parse("https://ex.com:8443/deep/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com:8443", Origin(*u))
}
