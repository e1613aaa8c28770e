package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/nuxtinfo/models"
)

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se), "expected *models.ScrapeError, got %T", err)
	return se.Code
}

func TestFindNuxtScript_FirstMatch(t *testing.T) {
	page := `<html><head>
<script src="/app.js"></script>
<script>var analytics = 1;</script>
</head><body>
<p>window.__NUXT__ in body text is ignored</p>
<script>window.__NUXT__=(function(){return {n:1}})();</script>
<script>window.__NUXT__=(function(){return {n:2}})();</script>
</body></html>`

	got, err := FindNuxtScript(page)
	require.NoError(t, err)
	assert.Equal(t, "window.__NUXT__=(function(){return {n:1}})();", got)
}

func TestFindNuxtScript_KeepsRawScriptText(t *testing.T) {
	page := `<script>window.__NUXT__=(function(a){return {s:"<b>&amp;</b>"+a}}("x"));</script>`

	got, err := FindNuxtScript(page)
	require.NoError(t, err)
	assert.Equal(t, `window.__NUXT__=(function(a){return {s:"<b>&amp;</b>"+a}}("x"));`, got)
}

func TestFindNuxtScript_NotFound(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no scripts", `<html><body><p>hello</p></body></html>`},
		{"other scripts", `<script>window.__APP__={}</script>`},
		{"empty document", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindNuxtScript(tt.page)
			assert.Equal(t, models.ErrCodeNuxtNotFound, errCode(t, err))
		})
	}
}

func TestExtractIIFE(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "semicolon terminated",
			script: `window.__NUXT__=(function(a){return {a:a}}(1));`,
			want:   `(function(a){return {a:a}}(1))`,
		},
		{
			name:   "trailing whitespace",
			script: "window.__NUXT__=(function(){return {}})();\n  ",
			want:   `(function(){return {}})()`,
		},
		{
			name:   "first marker wins",
			script: `window.__NUXT__=(function(){return (function(){return 1})()})();`,
			want:   `(function(){return (function(){return 1})()})()`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractIIFE(tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIIFE_NotFound(t *testing.T) {
	_, err := ExtractIIFE(`window.__NUXT__={state:{}};`)
	assert.Equal(t, models.ErrCodeIIFENotFound, errCode(t, err))
}
