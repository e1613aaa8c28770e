package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/engine"
	"github.com/use-agent/nuxtinfo/evaluator"
	"github.com/use-agent/nuxtinfo/models"
)

const validPage = `<html><body><script>window.__NUXT__ = (function(){ return {state:{slug:{model:{downloads:[` +
	`{file:"/leaving?url=https%3A%2F%2Fexample.com%2Ffile.mcpack",name:"a"},` +
	`{file:"/leaving?url=https%3A%2F%2Fexample.com%2Ffile.mcpack",name:"a"}]}}}} })();</script></body></html>`

// fakeEngine returns a canned page and counts calls.
type fakeEngine struct {
	html  string
	err   error
	calls int
	req   *engine.FetchRequest
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &engine.FetchResult{HTML: f.html, StatusCode: 200, FinalURL: req.URL, EngineName: f.Name()}, nil
}

func newTestScraper(eng engine.Engine) *Scraper {
	return NewScraper(eng, evaluator.NewGoja(time.Second), config.FetchConfig{
		AllowedPrefix: "https://mcpedl.com",
		Timeout:       20 * time.Second,
	})
}

func TestDoScrape_EndToEnd(t *testing.T) {
	eng := &fakeEngine{html: validPage}
	sc := newTestScraper(eng)

	res, err := sc.DoScrape(context.Background(), &models.InfoRequest{URL: "https://mcpedl.com/some-addon/"})
	require.NoError(t, err)

	require.Equal(t, 1, eng.calls)
	assert.Equal(t, 20*time.Second, eng.req.Timeout)
	assert.Equal(t, "https://mcpedl.com/some-addon/", res.FinalURL)

	b, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"state":{"slug":{"model":{"downloads":[{"file":"https://example.com/file.mcpack","name":"a"}]}}}}`,
		string(b))
}

func TestDoScrape_DropsLoneSurrogates(t *testing.T) {
	page := `<html><body><script>window.__NUXT__=(function(){ return {state:{slug:{model:` +
		`{title:"ab\uD83Dcd",emoji:"\uD83D\uDE00"}}}} })();</script></body></html>`
	sc := newTestScraper(&fakeEngine{html: page})

	res, err := sc.DoScrape(context.Background(), &models.InfoRequest{URL: "https://mcpedl.com/a/"})
	require.NoError(t, err)

	b, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.Equal(t, `{"state":{"slug":{"model":{"title":"abcd","emoji":"😀"}}}}`, string(b))
}

func TestDoScrape_RejectsForeignURLBeforeFetch(t *testing.T) {
	eng := &fakeEngine{html: validPage}
	sc := newTestScraper(eng)

	_, err := sc.DoScrape(context.Background(), &models.InfoRequest{URL: "https://example.com/mcpedl.com"})

	assert.Equal(t, models.ErrCodeInvalidInput, errCode(t, err))
	assert.Zero(t, eng.calls)
}

func TestDoScrape_StageErrors(t *testing.T) {
	tests := []struct {
		name string
		eng  *fakeEngine
		code string
	}{
		{"upstream failure", &fakeEngine{err: errors.New("http_engine: HTTP 503")}, models.ErrCodeUpstream},
		{"no nuxt script", &fakeEngine{html: `<script>var a=1;</script>`}, models.ErrCodeNuxtNotFound},
		{"no iife", &fakeEngine{html: `<script>window.__NUXT__={state:{}};</script>`}, models.ErrCodeIIFENotFound},
		{"script throws", &fakeEngine{html: `<script>window.__NUXT__=(function(){throw new Error("x")})();</script>`}, models.ErrCodeEvaluation},
		{"no model", &fakeEngine{html: `<script>window.__NUXT__=(function(){return {state:{}}})();</script>`}, models.ErrCodeModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScraper(tt.eng)
			_, err := sc.DoScrape(context.Background(), &models.InfoRequest{URL: "https://mcpedl.com/x/"})
			assert.Equal(t, tt.code, errCode(t, err))
		})
	}
}

func TestDoScrape_UpstreamMessageEmbedsCause(t *testing.T) {
	sc := newTestScraper(&fakeEngine{err: errors.New("connection reset by peer")})

	_, err := sc.DoScrape(context.Background(), &models.InfoRequest{URL: "https://mcpedl.com/x/"})
	require.Error(t, err)

	var se *models.ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Message, "connection reset by peer")
	assert.Equal(t, 502, se.Status())
}

func TestEvaluatorName(t *testing.T) {
	assert.Equal(t, "goja", newTestScraper(&fakeEngine{}).EvaluatorName())
}
