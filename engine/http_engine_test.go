package engine

import (
	"bytes"
	"context"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><script>window.__NUXT__=(function(){return {}})();</script></body></html>`

func TestHTTPEngine_Fetch_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotEncoding = r.Header.Get("Accept-Encoding")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	res, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, ChromeUA, gotUA)
	assert.Equal(t, "gzip, deflate, br", gotEncoding)
	assert.Equal(t, page, res.HTML)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "http", res.EngineName)
}

func TestHTTPEngine_Fetch_DecodesBodies(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		encode   func(t *testing.T, b []byte) []byte
	}{
		{
			name:     "brotli",
			encoding: "br",
			encode: func(t *testing.T, b []byte) []byte {
				var buf bytes.Buffer
				w := brotli.NewWriter(&buf)
				_, err := w.Write(b)
				require.NoError(t, err)
				require.NoError(t, w.Close())
				return buf.Bytes()
			},
		},
		{
			name:     "gzip",
			encoding: "gzip",
			encode: func(t *testing.T, b []byte) []byte {
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				_, err := w.Write(b)
				require.NoError(t, err)
				require.NoError(t, w.Close())
				return buf.Bytes()
			},
		},
		{
			name:     "identity",
			encoding: "",
			encode:   func(_ *testing.T, b []byte) []byte { return b },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.encode(t, []byte(page))
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			res, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: srv.URL})
			require.NoError(t, err)
			assert.Equal(t, page, res.HTML)
		})
	}
}

func TestHTTPEngine_Fetch_RejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestHTTPEngine_Fetch_BodyLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", 32, false},
		{"over limit", 33, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("x"), tt.size))
			}))
			defer srv.Close()

			res, err := NewHTTPEngine(WithMaxBody(32)).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exceeds 32 bytes")
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.HTML, tt.size)
		})
	}
}

func TestHTTPEngine_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: srv.URL, Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPEngine_Fetch_ChromeTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	res, err := NewHTTPEngine(WithRootCAs(pool)).Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, page, res.HTML)
}

func TestHTTPEngine_Fetch_InvalidURL(t *testing.T) {
	_, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{URL: "://nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build request")
}
