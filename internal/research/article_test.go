package research

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleHTML(heading string) string {
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12)
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
		<h1>%s</h1>
		<p>%s</p>
		<p>%s</p>
	</body></html>`, heading, heading, para, para)
}

func TestIsValidArticle_Accepts(t *testing.T) {
	assert.True(t, IsValidArticle(articleHTML("Anvil Industry Trends for 2026")))
}

func TestIsValidArticle_RejectsDenylistedHeading(t *testing.T) {
	// Long enough to clear every size threshold; the heading alone
	// disqualifies it.
	assert.False(t, IsValidArticle(articleHTML("Site Map")))
	assert.False(t, IsValidArticle(articleHTML("Privacy Policy")))
	assert.False(t, IsValidArticle(articleHTML("Frequently Asked Questions (FAQ)")))
}

func TestIsValidArticle_RejectsThinContent(t *testing.T) {
	assert.False(t, IsValidArticle(`<html><body><h1>News</h1><p>Short.</p><p>Also short.</p></body></html>`))
}

func TestIsValidArticle_RequiresHeading(t *testing.T) {
	para := strings.Repeat("word ", 200)
	html := fmt.Sprintf(`<html><body><p>%s</p><p>%s</p></body></html>`, para, para)
	assert.False(t, IsValidArticle(html))
}

func TestIsValidArticle_RequiresTwoParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 400)
	html := fmt.Sprintf(`<html><body><h1>Title</h1><p>%s</p></body></html>`, para)
	assert.False(t, IsValidArticle(html))
}

func TestIsValidArticle_IgnoresScriptText(t *testing.T) {
	script := strings.Repeat("var x = 1; ", 200)
	html := fmt.Sprintf(`<html><body><h1>Title</h1><p>a</p><p>b</p><script>%s</script></body></html>`, script)
	assert.False(t, IsValidArticle(html))
}

func TestExtractArticle_Success(t *testing.T) {
	url := "https://example.test/blog/anvil-trends"
	fetch := newStubFetcher(map[string]string{
		url: articleHTML("Anvil Industry Trends for 2026"),
	})

	art, err := ExtractArticle(context.Background(), fetch, url)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.Equal(t, "Anvil Industry Trends for 2026", art.Title)
	assert.Equal(t, url, art.URL)
	assert.NotEmpty(t, art.Excerpt)
	assert.LessOrEqual(t, len(art.Excerpt), 353)
	assert.True(t, strings.HasSuffix(art.Excerpt, "..."))
}

func TestExtractArticle_NonArticlePage(t *testing.T) {
	url := "https://example.test/shop/item-9"
	fetch := newStubFetcher(map[string]string{
		url: `<html><body><h1>Anvil Mk2</h1><p>$99</p><p>Add to cart</p></body></html>`,
	})

	art, err := ExtractArticle(context.Background(), fetch, url)
	require.NoError(t, err)
	assert.Nil(t, art)
}

func TestExtractArticle_RejectsUntitled(t *testing.T) {
	para := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12)
	url := "https://example.test/blog/mystery"
	fetch := newStubFetcher(map[string]string{
		url: fmt.Sprintf(`<html><body><h1>Untitled</h1><p>%s</p><p>%s</p></body></html>`, para, para),
	})

	art, err := ExtractArticle(context.Background(), fetch, url)
	require.NoError(t, err)
	assert.Nil(t, art)
}

func TestExtractArticle_FetchFailure(t *testing.T) {
	fetch := newStubFetcher(nil)
	art, err := ExtractArticle(context.Background(), fetch, "https://example.test/blog/gone")
	assert.Nil(t, art)
	assert.Nil(t, err)
}
