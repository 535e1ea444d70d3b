package research

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// parseDoc parses an HTML body with script/style/noscript content removed.
func parseDoc(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "research: parse html")
	}
	doc.Find("script,noscript,style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	return doc, nil
}

var spaceRe = regexp.MustCompile(`\s+`)

// visibleText returns the page's human-visible text, NFKC-normalized with
// collapsed whitespace.
func visibleText(doc *goquery.Document) string {
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	text = norm.NFKC.String(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// paragraphs returns trimmed non-empty paragraph-level text blocks.
func paragraphs(doc *goquery.Document) []string {
	var out []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// headings returns trimmed non-empty h1-h3 texts in document order.
func headings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h1,h2,h3").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// normalizeDomain accepts a bare host or full URL and returns the site's
// base URL (scheme://host) and parsed form.
func normalizeDomain(raw string) (string, *url.URL, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, eris.Wrapf(err, "research: parse domain %s", raw)
	}
	if u.Host == "" {
		return "", nil, eris.Errorf("research: no host in %s", raw)
	}
	base := u.Scheme + "://" + u.Host
	baseURL, _ := url.Parse(base)
	return base, baseURL, nil
}

// baseName extracts a site's registered base name: host minus "www." minus
// the TLD ("www.example.co" → "example").
func baseName(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
