package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Company identifies a research target.
type Company struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ScoredLink is a candidate content URL ranked by keyword relevance.
// Higher scores are crawled first; ties keep discovery order.
type ScoredLink struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

const (
	maxTitleLen   = 120
	maxExcerptLen = 350
)

// Article is a page that passed the article-validity check.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
}

// NewArticle builds an Article, truncating title and excerpt to their
// display limits with an ellipsis.
func NewArticle(title, url, excerpt string) Article {
	return Article{
		Title:   Truncate(strings.TrimSpace(title), maxTitleLen),
		URL:     url,
		Excerpt: Truncate(strings.TrimSpace(excerpt), maxExcerptLen),
	}
}

// Clip cuts s to at most max runes, never splitting a multibyte sequence.
func Clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Truncate clips s to max runes, appending "..." when clipped.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return Clip(s, max) + "..."
}

// Platform identifies a social network.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// AllPlatforms returns the platforms scanned for profile links.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformLinkedIn,
		PlatformTwitter,
		PlatformFacebook,
		PlatformInstagram,
		PlatformYouTube,
	}
}

// SocialLinks maps a platform to the single profile URL kept for it.
type SocialLinks map[Platform]string

// CompanyFacts is the free-form structured fact object returned by the
// completion service. Keys are advisory, values may be strings or lists.
type CompanyFacts map[string]any

// Known fact categories requested from the completion service.
const (
	FactOverview         = "overview"
	FactProductsServices = "products_services"
	FactLocations        = "locations"
	FactCertifications   = "certifications"
	FactContactInfo      = "contact_info"
	FactOtherDetails     = "other_details"
)

// DefaultCompanyFacts returns the placeholder fact structure substituted
// when aggregation produces nothing usable.
func DefaultCompanyFacts() CompanyFacts {
	return CompanyFacts{
		FactOverview:         "",
		FactProductsServices: "",
		FactLocations:        "",
		FactCertifications:   "",
		FactContactInfo:      "",
		FactOtherDetails:     "",
	}
}

// ProductsServices pulls the products_services substructure, if present.
func (f CompanyFacts) ProductsServices() any {
	if f == nil {
		return nil
	}
	return f[FactProductsServices]
}

// ResearchResult is the best-effort aggregate returned for a company.
// Every field except Company may be empty when its source failed.
type ResearchResult struct {
	RunID            string         `json:"run_id"`
	Company          Company        `json:"company"`
	Articles         []Article      `json:"articles"`
	Locations        []string       `json:"locations"`
	Facts            CompanyFacts   `json:"company_facts"`
	ProductsServices any            `json:"products_services"`
	Social           SocialLinks    `json:"social_media"`
	Elapsed          time.Duration  `json:"elapsed_ns"`
	CreatedAt        time.Time      `json:"created_at"`
	FromCache        bool           `json:"from_cache,omitempty"`
}
