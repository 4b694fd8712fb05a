package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/scloud/internal/shared"
)

// SessionOptions configures the HTTP clients of a [Session].
type SessionOptions struct {
	Token      string
	UserAgent  string
	APIHost    string // host the throttle applies to
	Proxy      *url.URL
	Timeout    time.Duration
	MaxRetries int
	Throttle   *Throttle
	Transport  http.RoundTripper // base transport, defaults to a clone of [http.DefaultTransport]
	Logger     *log.Logger
}

// Session holds the HTTP clients used to talk to SoundCloud.
//
//   - API sends the OAuth header and follows redirects.
//   - NoRedirect sends the OAuth header and hands 3xx responses back to the caller.
//   - Public sends no credentials; it is used for the web host and api-v2.
type Session struct {
	API        *http.Client
	NoRedirect *http.Client
	Public     *http.Client
	Throttle   *Throttle
}

// NewSession builds the transport chains: auth → user agent → throttle → retry → base.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	base := opts.Transport
	if base == nil {
		base = baseTransport(opts.Proxy)
	}

	var rt http.RoundTripper = &retryTransport{base: base, maxRetries: opts.MaxRetries, logger: logger}
	rt = &throttlingTransport{base: rt, throttle: opts.Throttle, host: opts.APIHost}
	rt = &userAgentTransport{base: rt, userAgent: opts.UserAgent}
	public := rt

	if opts.Token != "" {
		rt = &sameHostAuth{
			auth: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "OAuth"}),
				Base:   rt,
			},
			plain: rt,
		}
	}

	return &Session{
		API:      &http.Client{Transport: rt, Timeout: opts.Timeout},
		Public:   &http.Client{Transport: public, Timeout: opts.Timeout},
		Throttle: opts.Throttle,
		NoRedirect: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func baseTransport(proxy *url.URL) http.RoundTripper {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy)
	} else {
		tr.Proxy = http.ProxyFromEnvironment
	}
	return tr
}

// getJSON performs a GET with params and decodes a 2xx JSON body into result.
func getJSON(ctx context.Context, client *http.Client, rawURL string, params url.Values, result any) error {
	u, err := withParams(rawURL, params)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return statusError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}
	return nil
}

// withParams merges params into the query of rawURL.
func withParams(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidURI, err)
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
