package research

import (
	"context"
	"strings"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
)

const (
	minArticleWords = 150
	minArticleChars = 300
	minParagraphs   = 2
)

// headingDenylist marks pages that carry article-shaped markup but are
// site chrome rather than content.
var headingDenylist = []string{"sitemap", "site map", "login", "log in", "privacy", "terms", "faq"}

// IsValidArticle reports whether an HTML body is a substantive article:
// at least one heading, two paragraphs, and enough body text, with no
// navigational heading.
func IsValidArticle(body string) bool {
	doc, err := parseDoc(body)
	if err != nil {
		return false
	}
	heads := headings(doc)
	if len(heads) == 0 {
		return false
	}
	for _, h := range heads {
		lower := strings.ToLower(h)
		for _, deny := range headingDenylist {
			if strings.Contains(lower, deny) {
				return false
			}
		}
	}
	paras := paragraphs(doc)
	if len(paras) < minParagraphs {
		return false
	}
	if len(strings.Fields(strings.Join(paras, " "))) <= minArticleWords {
		return false
	}
	return len(visibleText(doc)) > minArticleChars
}

// ExtractArticle fetches a URL and, when it passes article validation,
// distills it to a title and excerpt. Pages that are not articles yield
// (nil, nil).
func ExtractArticle(ctx context.Context, fetch fetcher.Client, rawURL string) (*model.Article, error) {
	out := fetch.Fetch(ctx, rawURL, fetcher.Options{AllowRender: true})
	if !out.OK() {
		zap.L().Debug("article fetch failed",
			zap.String("url", rawURL),
			zap.String("status", string(out.Status)))
		return nil, out.Err
	}
	if !IsValidArticle(out.Body) {
		return nil, nil
	}

	title, excerpt := readArticle(out.Body)
	if title == "" || strings.EqualFold(title, "untitled") {
		return nil, nil
	}
	art := model.NewArticle(title, rawURL, excerpt)
	return &art, nil
}

// readArticle takes the title from the first heading or the title tag and
// the excerpt from the concatenated paragraph text, falling back to
// readability's extraction when the markup carries neither.
func readArticle(body string) (title, excerpt string) {
	if doc, err := parseDoc(body); err == nil {
		if heads := headings(doc); len(heads) > 0 {
			title = heads[0]
		}
		if title == "" {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		excerpt = strings.TrimSpace(strings.Join(paragraphs(doc), " "))
	}
	if title == "" || excerpt == "" {
		if art, err := readability.FromReader(strings.NewReader(body), nil); err == nil {
			if title == "" {
				title = strings.TrimSpace(art.Title)
			}
			if excerpt == "" {
				excerpt = strings.TrimSpace(art.TextContent)
			}
		}
	}
	return title, excerpt
}
