package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

// maxPageBytes caps how much of a scraped page or script is read.
const maxPageBytes = 4 << 20

var (
	scriptSrcRegex = regexp.MustCompile(`<script[^>]+src="([^"]+)"`)
	clientIDRegex  = regexp.MustCompile(`client_id\s*[:=]\s*"?([A-Za-z0-9_-]{16,})`)
)

// StreamState is a step of the stream URL resolution.
type StreamState int

const (
	TryPublic StreamState = iota
	TryPrivate
	TryPreview
	Resolved
	Failed
)

func (s StreamState) String() string {
	switch s {
	case TryPublic:
		return "TryPublic"
	case TryPrivate:
		return "TryPrivate"
	case TryPreview:
		return "TryPreview"
	case Resolved:
		return "Resolved"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

// StartState is where resolution begins: public tracks go through api-v2 first.
func StartState(rec *models.Record) StreamState {
	if rec.SharingOf() == "public" {
		return TryPublic
	}
	return TryPrivate
}

// streamAttempt carries what one resolution has learned so far.
type streamAttempt struct {
	rec       *models.Record
	url       string
	preview   *models.Transcoding
	refreshed bool
	trail     []StreamState
}

// Streams resolves playable media URLs for track records.
//
// The public client id scraped from the web host is shared by all resolutions
// and refreshed at most once per resolution when api-v2 rejects it.
type Streams struct {
	session  *Session
	apiURL   string
	apiV2URL string
	webURL   string
	clientID string
	logger   *log.Logger

	mu       sync.Mutex
	publicID string
}

// StreamsOptions configures [Streams].
type StreamsOptions struct {
	APIURL   string
	APIV2URL string
	WebURL   string
	ClientID string // sent with private stream requests
	Logger   *log.Logger
}

// NewStreams creates a [Streams] resolver over session.
func NewStreams(session *Session, opts StreamsOptions) *Streams {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Streams{
		session:  session,
		apiURL:   strings.TrimRight(opts.APIURL, "/"),
		apiV2URL: strings.TrimRight(opts.APIV2URL, "/"),
		webURL:   opts.WebURL,
		clientID: opts.ClientID,
		logger:   logger,
	}
}

// StreamableURL runs the resolution state machine for rec.
func (s *Streams) StreamableURL(ctx context.Context, rec *models.Record) (string, error) {
	a, err := s.resolve(ctx, rec)
	if err != nil {
		return "", err
	}
	return a.url, nil
}

func (s *Streams) resolve(ctx context.Context, rec *models.Record) (*streamAttempt, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", shared.ErrNotStreamable)
	}

	a := &streamAttempt{rec: rec}
	state := StartState(rec)
	for state != Resolved && state != Failed {
		a.trail = append(a.trail, state)
		state = s.step(ctx, a, state)
	}
	a.trail = append(a.trail, state)

	if state == Failed {
		return a, fmt.Errorf("%w: track %s", shared.ErrNotStreamable, rec.ID)
	}
	return a, nil
}

func (s *Streams) step(ctx context.Context, a *streamAttempt, state StreamState) StreamState {
	switch state {
	case TryPublic:
		return s.tryPublic(ctx, a)
	case TryPrivate:
		return s.tryPrivate(ctx, a)
	case TryPreview:
		return s.tryPreview(ctx, a)
	default:
		return Failed
	}
}

func (s *Streams) tryPublic(ctx context.Context, a *streamAttempt) StreamState {
	id, err := s.PublicClientID(ctx, false)
	if err != nil {
		s.logger.Warn("no public client id", "err", err)
		return TryPrivate
	}

	u, err := s.progressiveURL(ctx, a, id)
	if err != nil && StatusCode(err) == http.StatusUnauthorized && !a.refreshed {
		a.refreshed = true
		s.logger.Debug("public client id rejected, refreshing")
		if id, err = s.PublicClientID(ctx, true); err == nil {
			u, err = s.progressiveURL(ctx, a, id)
		}
	}
	if err != nil {
		s.logger.Debug("public stream unavailable", "track", a.rec.ID, "err", err)
		return TryPrivate
	}

	a.url = u
	return Resolved
}

// progressiveURL picks the first full-length progressive transcoding and
// resolves it. Preview transcodings are remembered on a.
func (s *Streams) progressiveURL(ctx context.Context, a *streamAttempt, clientID string) (string, error) {
	var rec models.Record
	endpoint := fmt.Sprintf("%s/tracks/%s", s.apiV2URL, a.rec.ID)
	if err := getJSON(ctx, s.session.Public, endpoint, url.Values{"client_id": {clientID}}, &rec); err != nil {
		return "", err
	}
	if rec.Media == nil {
		return "", fmt.Errorf("%w: no media for track %s", shared.ErrNotStreamable, a.rec.ID)
	}

	var chosen *models.Transcoding
	for i := range rec.Media.Transcodings {
		t := &rec.Media.Transcodings[i]
		if t.IsPreview() {
			if a.preview == nil {
				a.preview = t
			}
			continue
		}
		if chosen == nil && t.Format.Protocol == "progressive" {
			chosen = t
		}
	}
	if chosen == nil {
		return "", fmt.Errorf("%w: no progressive transcoding for track %s", shared.ErrNotStreamable, a.rec.ID)
	}
	return s.transcodingURL(ctx, chosen, clientID)
}

func (s *Streams) transcodingURL(ctx context.Context, t *models.Transcoding, clientID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := getJSON(ctx, s.session.Public, t.URL, url.Values{"client_id": {clientID}}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("%w: empty transcoding url", shared.ErrMalformedResponse)
	}
	return out.URL, nil
}

func (s *Streams) tryPrivate(ctx context.Context, a *streamAttempt) StreamState {
	endpoint := a.rec.StreamURLOf()
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/tracks/%s/stream", s.apiURL, a.rec.ID)
	}
	u, err := withParams(endpoint, url.Values{"client_id": {s.clientID}})
	if err != nil {
		return Failed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return Failed
	}
	resp, err := s.session.NoRedirect.Do(req)
	if err != nil {
		s.logger.Warn("private stream request failed", "track", a.rec.ID, "err", err)
		return Failed
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, err := resp.Location()
		if err != nil {
			return Failed
		}
		a.url = loc.String()
		return Resolved
	case resp.StatusCode == http.StatusTooManyRequests:
		s.logger.Warn("rate limited resolving stream", "track", a.rec.ID)
		return TryPreview
	default:
		s.logger.Debug("private stream unavailable", "track", a.rec.ID, "status", resp.StatusCode)
		return Failed
	}
}

func (s *Streams) tryPreview(ctx context.Context, a *streamAttempt) StreamState {
	if a.preview == nil {
		s.logger.Warn("rate limited and no preview available", "track", a.rec.ID)
		return Failed
	}

	id, err := s.PublicClientID(ctx, false)
	if err != nil {
		return Failed
	}
	u, err := s.transcodingURL(ctx, a.preview, id)
	if err != nil {
		s.logger.Warn("preview stream unavailable", "track", a.rec.ID, "err", err)
		return Failed
	}
	a.url = u
	return Resolved
}

// PublicClientID returns the client id embedded in the public web player,
// scraping it when not cached or when refresh is set.
func (s *Streams) PublicClientID(ctx context.Context, refresh bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publicID != "" && !refresh {
		return s.publicID, nil
	}

	id, err := s.scrapeClientID(ctx)
	if err != nil {
		return "", err
	}
	s.publicID = id
	return id, nil
}

// scrapeClientID looks for the id in the page body first, then in the page's
// scripts from last to first.
func (s *Streams) scrapeClientID(ctx context.Context) (string, error) {
	page, err := s.fetchText(ctx, s.webURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNoClientID, err)
	}
	if m := clientIDRegex.FindStringSubmatch(page); m != nil {
		return m[1], nil
	}

	base, err := url.Parse(s.webURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	scripts := scriptSrcRegex.FindAllStringSubmatch(page, -1)
	for i := len(scripts) - 1; i >= 0; i-- {
		ref, err := url.Parse(scripts[i][1])
		if err != nil {
			continue
		}
		body, err := s.fetchText(ctx, base.ResolveReference(ref).String())
		if err != nil {
			s.logger.Debug("skipping script", "src", scripts[i][1], "err", err)
			continue
		}
		if m := clientIDRegex.FindStringSubmatch(body); m != nil {
			return m[1], nil
		}
	}
	return "", shared.ErrNoClientID
}

func (s *Streams) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.session.Public.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
