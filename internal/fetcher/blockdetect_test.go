package fetcher

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func respWith(status int, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestDetectBlock_Cloudflare(t *testing.T) {
	blocked, kind := DetectBlock(respWith(403, map[string]string{"cf-ray": "abc123"}), nil)
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)

	blocked, kind = DetectBlock(respWith(503, map[string]string{"server": "cloudflare"}), nil)
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)

	blocked, kind = DetectBlock(respWith(200, nil), []byte("<html>Checking your browser before accessing</html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)
}

func TestDetectBlock_Captcha(t *testing.T) {
	blocked, kind := DetectBlock(respWith(200, nil), []byte(`<div class="g-recaptcha"></div>`))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, kind)
}

func TestDetectBlock_JSShell(t *testing.T) {
	body := []byte(`<html><body><noscript>Please enable JavaScript</noscript></body></html>`)
	blocked, kind := DetectBlock(respWith(200, nil), body)
	assert.True(t, blocked)
	assert.Equal(t, BlockJSShell, kind)
}

func TestDetectBlock_CleanPage(t *testing.T) {
	blocked, kind := DetectBlock(respWith(200, nil), []byte("<html><body><h1>Welcome</h1></body></html>"))
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, kind)

	blocked, _ = DetectBlock(nil, nil)
	assert.False(t, blocked)
}
