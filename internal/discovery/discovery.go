package discovery

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/jssift/internal/model"
)

// Discover returns the absolute location of every external script in doc,
// in document order. Duplicates are kept. References that are empty, do
// not parse, or resolve to anything but http(s) are dropped.
// An error is returned only when doc cannot be read.
func Discover(doc io.Reader, base *url.URL) ([]*url.URL, error) {
	document, err := goquery.NewDocumentFromReader(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	base = documentBase(document, base)

	scripts := make([]*url.URL, 0)
	document.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		if u := resolve(base, src); u != nil {
			scripts = append(scripts, u)
		}
	})
	return scripts, nil
}

// References converts discovered locations into ScriptReferences numbered
// in discovery order.
func References(urls []*url.URL) []model.ScriptReference {
	refs := make([]model.ScriptReference, 0, len(urls))
	for i, u := range urls {
		refs = append(refs, model.ScriptReference{URL: u, Index: i})
	}
	return refs
}

// documentBase applies the first <base href> of the document to the page
// location.
func documentBase(document *goquery.Document, page *url.URL) *url.URL {
	href, ok := document.Find("base[href]").First().Attr("href")
	if !ok {
		return page
	}
	if u := resolve(page, href); u != nil {
		return u
	}
	return page
}

// resolve resolves ref against base. It returns nil for references that
// cannot be fetched over http(s).
func resolve(base *url.URL, ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if !u.IsAbs() || u.Host == "" || !model.IsHTTPScheme(u.Scheme) {
		return nil
	}
	u.Fragment = ""
	return u
}
