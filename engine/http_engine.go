package engine

import (
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
)

// ChromeUA is the user agent matching the Chrome 120 TLS fingerprint.
const ChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultMaxBody caps how much of a response body is accepted.
const defaultMaxBody = 10 << 20

// HTTPEngine fetches pages over plain net/http while presenting a
// Chrome 120 TLS ClientHello.
type HTTPEngine struct {
	client  *http.Client
	maxBody int64
}

// chromeH1Spec is the Chrome 120 ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_120)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection, so the
	// server must never negotiate it.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPOption customises an HTTPEngine.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	rootCAs *x509.CertPool
	maxBody int64
}

// WithRootCAs overrides the certificate pool used to verify servers.
func WithRootCAs(pool *x509.CertPool) HTTPOption {
	return func(o *httpOptions) { o.rootCAs = pool }
}

// WithMaxBody sets the largest decoded body accepted; bigger pages fail.
func WithMaxBody(n int64) HTTPOption {
	return func(o *httpOptions) { o.maxBody = n }
}

// NewHTTPEngine creates an HTTPEngine with a Chrome 120 TLS fingerprint.
func NewHTTPEngine(opts ...HTTPOption) *HTTPEngine {
	o := httpOptions{maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(&o)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host, RootCAs: o.rootCAs}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2:  false,
		DisableCompression: true,
	}
	return &HTTPEngine{
		maxBody: o.maxBody,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch issues exactly one GET. Transport failures, timeouts and non-2xx
// statuses are all returned as errors.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", ChromeUA)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http_engine: HTTP %d for %s", resp.StatusCode, req.URL)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("http_engine: decode body: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, e.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	if int64(len(raw)) > e.maxBody {
		return nil, fmt.Errorf("http_engine: body of %s exceeds %d bytes", req.URL, e.maxBody)
	}

	return &FetchResult{
		HTML:       string(raw),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}
