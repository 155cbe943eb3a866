package extractor

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

/*
Responsibilities

- Parse fetched HTML into a searchable DOM
- Collect anchor hrefs
- Resolve relative references against the page's landing URL

Malformed input never aborts a page: unparseable hrefs are dropped
one by one and the remaining links survive.
*/

// Extractor returns the outbound links of a page, resolved to absolute
// URLs against the base. The result is raw: admission filtering is the
// caller's job.
type Extractor interface {
	Extract(base url.URL, html string) []url.URL
}

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(metadataSink metadata.MetadataSink) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

func (e *DomExtractor) Extract(base url.URL, html string) []url.URL {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.Extract",
			metadata.CauseContentInvalid,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, base.String()),
			},
		)
		return nil
	}

	var links []url.URL
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			// Malformed href: drop this link, keep the rest of the page.
			e.metadataSink.RecordSkip(metadata.SkipInvalid, href)
			return
		}

		links = append(links, *base.ResolveReference(ref))
	})

	return links
}
