package research

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
)

var socialPaths = []string{"", "/about", "/contact", "/home"}

var platformPatterns = map[model.Platform]*regexp.Regexp{
	model.PlatformLinkedIn:  regexp.MustCompile(`https?://(?:www\.)?linkedin\.com/(?:company|in|school)/[A-Za-z0-9._%-]+/?`),
	model.PlatformTwitter:   regexp.MustCompile(`https?://(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+/?`),
	model.PlatformFacebook:  regexp.MustCompile(`https?://(?:www\.)?facebook\.com/[A-Za-z0-9.%-]+/?`),
	model.PlatformInstagram: regexp.MustCompile(`https?://(?:www\.)?instagram\.com/[A-Za-z0-9._%-]+/?`),
	model.PlatformYouTube:   regexp.MustCompile(`https?://(?:www\.)?youtube\.com/(?:channel/|c/|user/|@)[A-Za-z0-9._%-]+/?`),
}

// ExtractSocialLinks scans the homepage and common variants for profile
// URLs on the five supported platforms, keeping the first plausible match
// per platform.
func ExtractSocialLinks(ctx context.Context, fetch fetcher.Client, domain string) (model.SocialLinks, error) {
	base, baseURL, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	company := baseName(baseURL.Host)

	links := make(model.SocialLinks)
	for _, path := range socialPaths {
		if len(links) == len(model.AllPlatforms()) {
			break
		}
		out := fetch.Fetch(ctx, base+path, fetcher.Options{Retries: 1})
		if !out.OK() {
			continue
		}
		for _, platform := range model.AllPlatforms() {
			if _, ok := links[platform]; ok {
				continue
			}
			for _, match := range platformPatterns[platform].FindAllString(out.Body, -1) {
				if plausibleProfile(match, company) {
					links[platform] = strings.TrimRight(match, "/")
					break
				}
			}
		}
	}
	return links, nil
}

// plausibleProfile rejects profile links that carry no trace of the
// company's own name, which weeds out share widgets and template links.
// Anything that cannot be checked passes.
func plausibleProfile(profile, company string) bool {
	if company == "" {
		return true
	}
	u, err := url.Parse(profile)
	if err != nil {
		return true
	}
	needle := strings.ToLower(strings.ReplaceAll(company, "-", ""))
	haystack := strings.ToLower(strings.ReplaceAll(u.Path, "-", ""))
	if strings.Contains(haystack, needle) {
		return true
	}
	return strings.Contains(strings.ToLower(strings.ReplaceAll(profile, "-", "")), needle)
}
