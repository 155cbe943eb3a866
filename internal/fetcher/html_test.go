package fetcher

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

func newTestFetcher(t *testing.T, handler http.Handler) (HtmlFetcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	recorder := metadata.NewRecorderWithWriter(false, &discardWriter{})
	f := NewHtmlFetcherWithClient(&recorder, "query-crawler-test", server.Client())
	return f, server
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func mustURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestFetchSuccessfulHTMLPage(t *testing.T) {
	const body = "<html><body><a href=\"/next\">next</a></body></html>"
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/page"))

	assert.Equal(t, 200, result.Meta().StatusCode())
	assert.Equal(t, body, result.HTML())
	assert.Equal(t, len(body), result.Meta().ContentLength())
	finalURL := result.FinalURL()
	assert.Equal(t, server.URL+"/page", finalURL.String())
	assert.NotEmpty(t, result.Meta().BodyDigest())
	assert.NotEmpty(t, result.Meta().Timestamp())
}

func TestFetchReportsLandingURLAfterRedirect(t *testing.T) {
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>landed</html>"))
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/old"))

	assert.Equal(t, 200, result.Meta().StatusCode())
	finalURL := result.FinalURL()
	assert.Equal(t, server.URL+"/new", finalURL.String())
	assert.NotEmpty(t, result.HTML())
}

func TestFetchNonHTMLContentKeepsStatusDropsBody(t *testing.T) {
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/doc"))

	assert.Equal(t, 200, result.Meta().StatusCode())
	assert.Empty(t, result.HTML())
	assert.Equal(t, 0, result.Meta().ContentLength())
}

func TestFetchHTTPErrorKeepsTrueStatus(t *testing.T) {
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/missing"))

	assert.Equal(t, 404, result.Meta().StatusCode())
	assert.Empty(t, result.HTML())
	assert.Equal(t, 0, result.Meta().ContentLength())
}

func TestFetchTransportFailureReportsStatusZero(t *testing.T) {
	recorder := metadata.NewRecorderWithWriter(false, &discardWriter{})
	f := NewHtmlFetcher(&recorder, "query-crawler-test", 500*time.Millisecond)

	// nothing listens here
	target := mustURL(t, "http://127.0.0.1:1/page")
	result := f.Fetch(context.Background(), target)

	assert.Equal(t, 0, result.Meta().StatusCode())
	assert.Equal(t, 0, result.Meta().ContentLength())
	assert.Empty(t, result.HTML())
	finalURL := result.FinalURL()
	assert.Equal(t, target.String(), finalURL.String())
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	// "café" in ISO-8859-1: the é is a single 0xE9 byte
	body := []byte{'c', 'a', 'f', 0xE9}
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write(body)
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/latin"))

	assert.Equal(t, "café", result.HTML())
	assert.Equal(t, len(body), result.Meta().ContentLength())
}

func TestFetchGzipEncodedBody(t *testing.T) {
	const body = "<html><body>compressed page</body></html>"
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(body))
		gz.Close()
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL+"/gz"))

	assert.Equal(t, 200, result.Meta().StatusCode())
	assert.Equal(t, body, result.HTML())
}

func TestFetchTimestampIsUTC(t *testing.T) {
	f, server := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))

	result := f.Fetch(context.Background(), mustURL(t, server.URL))

	parsed, err := time.Parse(time.RFC3339, result.Meta().Timestamp())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}
