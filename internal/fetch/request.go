package fetch

import (
	"context"
	"net/url"
	"strings"
)

type scriptPageKey struct{}

// ScriptRequest marks requests made with the returned context as loads of a
// script referenced by page. page may be nil.
func ScriptRequest(ctx context.Context, page *url.URL) context.Context {
	return context.WithValue(ctx, scriptPageKey{}, page)
}

func scriptPage(ctx context.Context) (*url.URL, bool) {
	page, ok := ctx.Value(scriptPageKey{}).(*url.URL)
	return page, ok
}

// referer follows the strict-origin-when-cross-origin policy: the full page
// URL for same-origin requests, the page origin otherwise.
func referer(page, target *url.URL) string {
	if sameOrigin(page, target) {
		ref := *page
		ref.Fragment = ""
		ref.RawFragment = ""
		ref.User = nil
		return ref.String()
	}
	return page.Scheme + "://" + page.Host + "/"
}

// fetchSite is the Sec-Fetch-Site value of a request for target made by page.
// The site is approximated by the last two host labels.
func fetchSite(page, target *url.URL) string {
	switch {
	case sameOrigin(page, target):
		return "same-origin"
	case page.Scheme == target.Scheme && siteOf(page.Hostname()) == siteOf(target.Hostname()):
		return "same-site"
	default:
		return "cross-site"
	}
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && canonicalAddr(a) == canonicalAddr(b)
}

func siteOf(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
