package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-research/internal/model"
)

func TestExtractSocialLinks(t *testing.T) {
	home := `<html><body>
		<a href="https://www.linkedin.com/company/acme-anvils">LinkedIn</a>
		<a href="https://twitter.com/acmeanvils">Twitter</a>
		<a href="https://www.instagram.com/acmeanvils/">Instagram</a>
	</body></html>`
	about := `<html><body>
		<a href="https://www.youtube.com/@acmeanvils">YouTube</a>
	</body></html>`
	fetch := newStubFetcher(map[string]string{
		"https://acme-anvils.test":       home,
		"https://acme-anvils.test/about": about,
	})

	links, err := ExtractSocialLinks(context.Background(), fetch, "https://acme-anvils.test")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/company/acme-anvils", links[model.PlatformLinkedIn])
	assert.Equal(t, "https://twitter.com/acmeanvils", links[model.PlatformTwitter])
	assert.Equal(t, "https://www.instagram.com/acmeanvils", links[model.PlatformInstagram])
	assert.Equal(t, "https://www.youtube.com/@acmeanvils", links[model.PlatformYouTube])
	assert.NotContains(t, links, model.PlatformFacebook)
}

func TestExtractSocialLinks_FirstMatchWins(t *testing.T) {
	home := `<html><body>
		<a href="https://twitter.com/acmeanvils">Us</a>
		<a href="https://twitter.com/acmeanvils_support">Support</a>
	</body></html>`
	fetch := newStubFetcher(map[string]string{
		"https://acme-anvils.test": home,
	})

	links, err := ExtractSocialLinks(context.Background(), fetch, "acme-anvils.test")
	require.NoError(t, err)
	assert.Equal(t, "https://twitter.com/acmeanvils", links[model.PlatformTwitter])
}

func TestExtractSocialLinks_RejectsImplausibleProfiles(t *testing.T) {
	// Share-this widget links that do not mention the company.
	home := `<html><body>
		<a href="https://www.facebook.com/sharer">Share</a>
		<a href="https://twitter.com/intent">Tweet</a>
	</body></html>`
	fetch := newStubFetcher(map[string]string{
		"https://acme-anvils.test": home,
	})

	links, err := ExtractSocialLinks(context.Background(), fetch, "https://acme-anvils.test")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestExtractSocialLinks_NothingReachable(t *testing.T) {
	fetch := newStubFetcher(nil)
	links, err := ExtractSocialLinks(context.Background(), fetch, "https://acme-anvils.test")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPlausibleProfile(t *testing.T) {
	assert.True(t, plausibleProfile("https://www.linkedin.com/company/acme-anvils", "acmeanvils"))
	assert.True(t, plausibleProfile("https://twitter.com/AcmeAnvils", "acme-anvils"))
	assert.False(t, plausibleProfile("https://twitter.com/someoneelse", "acmeanvils"))
	assert.True(t, plausibleProfile("https://twitter.com/whoever", ""))
}
