package research

import (
	"context"
	"encoding/xml"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
)

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

var (
	commerceRe = regexp.MustCompile(`(?i)product|shop|store|item`)
	productRe  = regexp.MustCompile(`(?i)product|item`)
	contentRe  = regexp.MustCompile(`(?i)blog|article|news`)
	sitemapRe  = regexp.MustCompile(`(?i)sitemap.*\.xml`)
)

// ScoreLink scores a URL path by how likely it is to describe what the
// company sells or publishes. Commerce paths score 2, with a 3-point bonus
// for concrete product pages; editorial paths score 2.
func ScoreLink(path string) int {
	score := 0
	if commerceRe.MatchString(path) {
		score += 2
		if productRe.MatchString(path) {
			score += 3
		}
	}
	if contentRe.MatchString(path) {
		score += 2
	}
	return score
}

const maxDiscoveredLinks = 30

// DiscoverLinks collects candidate pages for a domain, preferring the
// sitemap and falling back to homepage anchors, and returns only links
// with a positive score, highest first.
func DiscoverLinks(ctx context.Context, fetch fetcher.Client, domain string) ([]model.ScoredLink, error) {
	base, baseURL, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	raw := sitemapLinks(ctx, fetch, base)
	if len(raw) == 0 {
		raw = homepageLinks(ctx, fetch, base, baseURL)
	}

	seen := make(map[string]bool, len(raw))
	var scored []model.ScoredLink
	for _, link := range raw {
		u, err := url.Parse(link)
		if err != nil || u.Host == "" || !sameSite(u.Host, baseURL.Host) {
			continue
		}
		if sitemapRe.MatchString(u.Path) {
			continue
		}
		norm := u.Scheme + "://" + u.Host + u.Path
		if seen[norm] {
			continue
		}
		seen[norm] = true
		if s := ScoreLink(u.Path); s > 0 {
			scored = append(scored, model.ScoredLink{URL: norm, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > maxDiscoveredLinks {
		scored = scored[:maxDiscoveredLinks]
	}
	zap.L().Debug("link discovery complete",
		zap.String("domain", base),
		zap.Int("candidates", len(raw)),
		zap.Int("scored", len(scored)))
	return scored, nil
}

func sitemapLinks(ctx context.Context, fetch fetcher.Client, base string) []string {
	out := fetch.Fetch(ctx, base+"/sitemap.xml", fetcher.Options{Retries: 1})
	if !out.OK() {
		return nil
	}
	var idx sitemapIndex
	if err := xml.Unmarshal([]byte(out.Body), &idx); err == nil && len(idx.Sitemaps) > 0 {
		// Index file: follow the first child sitemap only.
		child := fetch.Fetch(ctx, strings.TrimSpace(idx.Sitemaps[0].Loc), fetcher.Options{Retries: 1})
		if !child.OK() {
			return nil
		}
		out = child
	}
	var set sitemapURLSet
	if err := xml.Unmarshal([]byte(out.Body), &set); err != nil {
		return nil
	}
	links := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			links = append(links, loc)
		}
	}
	return links
}

func homepageLinks(ctx context.Context, fetch fetcher.Client, base string, baseURL *url.URL) []string {
	out := fetch.Fetch(ctx, base, fetcher.Options{AllowRender: true})
	if !out.OK() {
		return nil
	}
	doc, err := parseDoc(out.Body)
	if err != nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, baseURL.ResolveReference(ref).String())
	})
	return links
}

func sameSite(host, baseHost string) bool {
	trim := func(h string) string { return strings.TrimPrefix(strings.ToLower(h), "www.") }
	return trim(host) == trim(baseHost)
}
