package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

const (
	validPublicID = "publicclientid0123456789abcdefgh"
	stalePublicID = "staleclientid0123456789abcdefghi"
)

// streamBackend fakes the web host, api-v2 and the private stream endpoint.
type streamBackend struct {
	*httptest.Server

	staleScrapes  int32 // scrapes that hand out the stale id
	scrapes       atomic.Int32
	v2Requests    atomic.Int32
	headRequests  atomic.Int32
	progressive   bool
	preview       bool
	privateStatus int
	privateAuth   atomic.Value
}

func newStreamBackend(t *testing.T, opts ...func(*streamBackend)) *streamBackend {
	t.Helper()
	b := &streamBackend{progressive: true, privateStatus: http.StatusFound}
	for _, opt := range opts {
		opt(b)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/web/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script crossorigin src="/assets/app.js"></script><script src="/assets/vendor.js"></script></html>`)
	})
	mux.HandleFunc("/assets/app.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var x = 1;`)
	})
	mux.HandleFunc("/assets/vendor.js", func(w http.ResponseWriter, r *http.Request) {
		n := b.scrapes.Add(1)
		id := validPublicID
		if n <= b.staleScrapes {
			id = stalePublicID
		}
		fmt.Fprintf(w, `({env:"production",client_id:"%s",x:1})`, id)
	})
	mux.HandleFunc("/v2/tracks/", func(w http.ResponseWriter, r *http.Request) {
		b.v2Requests.Add(1)
		if r.URL.Query().Get("client_id") != validPublicID {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		base := "http://" + r.Host
		var transcodings []map[string]any
		if b.preview {
			transcodings = append(transcodings, map[string]any{
				"url": base + "/v2/media/1/preview/progressive", "snipped": true,
				"format": map[string]any{"protocol": "progressive", "mime_type": "audio/mpeg"},
			})
		}
		transcodings = append(transcodings, map[string]any{
			"url": base + "/v2/media/1/stream/hls", "format": map[string]any{"protocol": "hls"},
		})
		if b.progressive {
			transcodings = append(transcodings, map[string]any{
				"url": base + "/v2/media/1/stream/progressive", "format": map[string]any{"protocol": "progressive"},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "media": map[string]any{"transcodings": transcodings}})
	})
	mux.HandleFunc("/v2/media/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client_id") != validPublicID {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		name := "full"
		if strings.Contains(r.URL.Path, "/preview/") {
			name = "preview"
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cf-media.sndcdn.com/" + name + ".mp3"})
	})
	mux.HandleFunc("/api/tracks/", func(w http.ResponseWriter, r *http.Request) {
		b.headRequests.Add(1)
		b.privateAuth.Store(r.Header.Get("Authorization") + " " + r.URL.Query().Get("client_id"))
		if b.privateStatus == http.StatusFound {
			w.Header().Set("Location", "https://cf-media.sndcdn.com/private.mp3")
		}
		w.WriteHeader(b.privateStatus)
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *streamBackend) streams(throttle *Throttle) *Streams {
	host := strings.TrimPrefix(b.URL, "http://")
	session := NewSession(SessionOptions{Token: "secret", APIHost: host, Throttle: throttle, Timeout: 5 * time.Second})
	return NewStreams(session, StreamsOptions{
		APIURL:   b.URL + "/api",
		APIV2URL: b.URL + "/v2",
		WebURL:   b.URL + "/web/",
		ClientID: "private-client",
	})
}

func streamRecord(sharing string) *models.Record {
	kind := "track"
	return &models.Record{Kind: &kind, ID: "42", Sharing: &sharing}
}

func TestStreams(t *testing.T) {
	ctx := context.Background()

	t.Run("start state", func(t *testing.T) {
		assert.Equal(t, TryPublic, StartState(streamRecord("public")))
		assert.Equal(t, TryPrivate, StartState(streamRecord("private")))
		assert.Equal(t, TryPrivate, StartState(&models.Record{}))
	})

	t.Run("public progressive stream", func(t *testing.T) {
		b := newStreamBackend(t)
		a, err := b.streams(nil).resolve(ctx, streamRecord("public"))

		require.NoError(t, err)
		assert.Equal(t, "https://cf-media.sndcdn.com/full.mp3", a.url)
		assert.Equal(t, []StreamState{TryPublic, Resolved}, a.trail)
		assert.Zero(t, b.headRequests.Load())
	})

	t.Run("client id is cached", func(t *testing.T) {
		b := newStreamBackend(t)
		s := b.streams(nil)

		for range 3 {
			_, err := s.StreamableURL(ctx, streamRecord("public"))
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), b.scrapes.Load())
	})

	t.Run("stale client id is refreshed once", func(t *testing.T) {
		b := newStreamBackend(t, func(b *streamBackend) { b.staleScrapes = 1 })

		a, err := b.streams(nil).resolve(ctx, streamRecord("public"))
		require.NoError(t, err)
		assert.Equal(t, "https://cf-media.sndcdn.com/full.mp3", a.url)
		assert.True(t, a.refreshed)
		assert.Equal(t, int32(2), b.scrapes.Load())
		assert.Equal(t, int32(2), b.v2Requests.Load())
	})

	t.Run("refresh is not repeated", func(t *testing.T) {
		b := newStreamBackend(t, func(b *streamBackend) { b.staleScrapes = 100 })

		a, err := b.streams(nil).resolve(ctx, streamRecord("public"))
		require.NoError(t, err)
		assert.Equal(t, int32(2), b.v2Requests.Load())
		assert.Equal(t, []StreamState{TryPublic, TryPrivate, Resolved}, a.trail)
		assert.Equal(t, "https://cf-media.sndcdn.com/private.mp3", a.url)
	})

	t.Run("private redirect", func(t *testing.T) {
		b := newStreamBackend(t)

		a, err := b.streams(nil).resolve(ctx, streamRecord("private"))
		require.NoError(t, err)
		assert.Equal(t, []StreamState{TryPrivate, Resolved}, a.trail)
		assert.Equal(t, "https://cf-media.sndcdn.com/private.mp3", a.url)
		assert.Equal(t, "OAuth secret private-client", b.privateAuth.Load())
		assert.Zero(t, b.scrapes.Load())
	})

	t.Run("record stream url is preferred", func(t *testing.T) {
		b := newStreamBackend(t)
		rec := streamRecord("private")
		streamURL := b.URL + "/api/tracks/99/stream"
		rec.StreamURL = &streamURL

		got, err := b.streams(nil).StreamableURL(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, "https://cf-media.sndcdn.com/private.mp3", got)
	})

	t.Run("rate limited falls back to preview", func(t *testing.T) {
		b := newStreamBackend(t, func(b *streamBackend) {
			b.progressive = false
			b.preview = true
			b.privateStatus = http.StatusTooManyRequests
		})

		a, err := b.streams(nil).resolve(ctx, streamRecord("public"))
		require.NoError(t, err)
		assert.Equal(t, []StreamState{TryPublic, TryPrivate, TryPreview, Resolved}, a.trail)
		assert.Equal(t, "https://cf-media.sndcdn.com/preview.mp3", a.url)
	})

	t.Run("rate limited without preview fails", func(t *testing.T) {
		b := newStreamBackend(t, func(b *streamBackend) { b.privateStatus = http.StatusTooManyRequests })

		a, err := b.streams(nil).resolve(ctx, streamRecord("private"))
		assert.ErrorIs(t, err, shared.ErrNotStreamable)
		assert.Equal(t, []StreamState{TryPrivate, TryPreview, Failed}, a.trail)
	})

	t.Run("private not found fails", func(t *testing.T) {
		b := newStreamBackend(t, func(b *streamBackend) { b.privateStatus = http.StatusNotFound })

		a, err := b.streams(nil).resolve(ctx, streamRecord("private"))
		assert.ErrorIs(t, err, shared.ErrNotStreamable)
		assert.Equal(t, []StreamState{TryPrivate, Failed}, a.trail)
	})

	t.Run("throttled probe is answered locally", func(t *testing.T) {
		b := newStreamBackend(t)
		throttle := NewThrottle(1, time.Minute, time.Minute)
		require.True(t, throttle.Allow())

		a, err := b.streams(throttle).resolve(ctx, streamRecord("private"))
		assert.ErrorIs(t, err, shared.ErrNotStreamable)
		assert.Equal(t, []StreamState{TryPrivate, TryPreview, Failed}, a.trail)
		assert.Zero(t, b.headRequests.Load())
	})

	t.Run("nil record", func(t *testing.T) {
		b := newStreamBackend(t)
		_, err := b.streams(nil).StreamableURL(ctx, nil)
		assert.ErrorIs(t, err, shared.ErrNotStreamable)
	})
}

func TestPublicClientID(t *testing.T) {
	ctx := context.Background()

	t.Run("found in page body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<script>window.__sc_hydration = {client_id="%s"}</script>`, validPublicID)
		}))
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		id, err := s.PublicClientID(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, validPublicID, id)
	})

	t.Run("scripts scanned last to first", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<script src="/first.js"></script><script src="/last.js"></script>`)
		})
		mux.HandleFunc("/first.js", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `client_id:"firstclientid0123456789abcdefghi"`)
		})
		mux.HandleFunc("/last.js", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `client_id:"%s"`, validPublicID)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		id, err := s.PublicClientID(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, validPublicID, id)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html></html>`)
		}))
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		_, err := s.PublicClientID(ctx, false)
		assert.ErrorIs(t, err, shared.ErrNoClientID)
	})

	t.Run("oversized page is truncated", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, strings.Repeat(" ", maxPageBytes))
			fmt.Fprintf(w, `client_id:"%s"`, validPublicID)
		}))
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		_, err := s.PublicClientID(ctx, false)
		assert.ErrorIs(t, err, shared.ErrNoClientID)
	})

	t.Run("page just under the cap is scanned", func(t *testing.T) {
		marker := fmt.Sprintf(`client_id:"%s"`, validPublicID)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, strings.Repeat(" ", maxPageBytes-len(marker)))
			fmt.Fprint(w, marker)
		}))
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		id, err := s.PublicClientID(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, validPublicID, id)
	})

	t.Run("web host error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		s := NewStreams(NewSession(SessionOptions{}), StreamsOptions{WebURL: server.URL})
		_, err := s.PublicClientID(ctx, false)
		assert.ErrorIs(t, err, shared.ErrNoClientID)
	})
}

func TestStreamStateString(t *testing.T) {
	assert.Equal(t, "TryPublic", TryPublic.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.Equal(t, "StreamState(9)", StreamState(9).String())
}
