package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/scloud/internal/cache"
	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

const (
	defaultAPIURL   = "https://api.soundcloud.com"
	defaultAPIV2URL = "https://api-v2.soundcloud.com"
	defaultWebURL   = "https://soundcloud.com"
)

// Options configures a [SoundCloudService].
type Options struct {
	Config    *shared.Config
	Logger    *log.Logger
	Transport http.RoundTripper // base transport, used by tests
}

// SoundCloudService is the client facade handed to browsing and playback
// callers. Remote failures are logged and turned into nil or empty results.
type SoundCloudService struct {
	cfg     shared.SoundCloudConfig
	apiURL  string
	session *Session
	parser  *Parser
	streams *Streams
	logger  *log.Logger
	limiter *rate.Limiter
	workers int

	users      *cache.Memo[string, *models.User]
	tracks     *cache.Memo[string, *models.Record]
	sets       *cache.Memo[string, []models.Record]
	listings   *cache.Memo[string, []models.Track]
	playlists  *cache.Memo[string, []models.Set]
	followings *cache.Memo[string, []models.Following]
	images     *cache.Memo[string, []models.Image]
}

// NewSoundCloudService builds the session, caches and parser, then checks the
// token against the identity endpoint. A rejected token is logged with
// [shared.InvalidTokenMessage] and does not fail construction.
func NewSoundCloudService(ctx context.Context, opts Options) (*SoundCloudService, error) {
	if opts.Config == nil {
		return nil, shared.ErrMissingConfig
	}
	cfg := opts.Config.SoundCloud

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	logger = shared.WithLogger(logger, "component", "soundcloud")

	apiURL := strings.TrimRight(orDefault(cfg.APIURL, defaultAPIURL), "/")
	api, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: api_url: %v", shared.ErrInvalidConfig, err)
	}
	proxy, err := opts.Config.Proxy.URL()
	if err != nil {
		return nil, err
	}

	burst, wait := cfg.Throttle.Windows()
	session := NewSession(SessionOptions{
		Token:      cfg.AuthToken,
		UserAgent:  cfg.UserAgent,
		APIHost:    api.Host,
		Proxy:      proxy,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.HTTPMaxRetries,
		Throttle:   NewThrottle(cfg.Throttle.BurstLength, burst, wait),
		Transport:  opts.Transport,
		Logger:     logger,
	})

	streams := NewStreams(session, StreamsOptions{
		APIURL:   apiURL,
		APIV2URL: orDefault(cfg.APIV2URL, defaultAPIV2URL),
		WebURL:   orDefault(cfg.WebURL, defaultWebURL),
		ClientID: cfg.ClientID,
		Logger:   logger,
	})

	ctl := cache.WithCTL(opts.Config.Cache.CTL)
	ttl := cache.WithTTL(opts.Config.Cache.TTL())
	listingTTL := cache.WithTTL(opts.Config.Cache.ListingTTL())

	s := &SoundCloudService{
		cfg:        cfg,
		apiURL:     apiURL,
		session:    session,
		parser:     NewParser(streams, logger),
		streams:    streams,
		logger:     logger,
		workers:    cfg.Workers(),
		users:      cache.New[string, *models.User](ctl, ttl),
		tracks:     cache.New[string, *models.Record](ctl, ttl),
		sets:       cache.New[string, []models.Record](ctl, ttl),
		listings:   cache.New[string, []models.Track](ctl, listingTTL),
		playlists:  cache.New[string, []models.Set](ctl, listingTTL),
		followings: cache.New[string, []models.Following](ctl, listingTTL),
		images:     cache.New[string, []models.Image](cache.WithCTL(0), ttl),
	}
	if cfg.BatchRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.BatchRateLimit), 1)
	}

	if _, err := s.fetchMe(ctx); err != nil {
		if StatusCode(err) == http.StatusUnauthorized {
			logger.Error(shared.InvalidTokenMessage)
		} else {
			logger.Warn("identity check failed", "err", err)
		}
	}

	return s, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Name returns the service name.
func (s *SoundCloudService) Name() string { return "SoundCloud" }

// Session exposes the HTTP clients, for raw API access.
func (s *SoundCloudService) Session() *Session { return s.session }

// Parser exposes the response parser.
func (s *SoundCloudService) Parser() *Parser { return s.parser }

func (s *SoundCloudService) endpoint(path string) string {
	return s.apiURL + "/" + strings.TrimLeft(path, "/")
}

// get fetches an API path with client_id attached.
func (s *SoundCloudService) get(ctx context.Context, path string, params url.Values, result any) error {
	if params == nil {
		params = url.Values{}
	}
	if s.cfg.ClientID != "" {
		params.Set("client_id", s.cfg.ClientID)
	}
	s.logger.Debug("requesting", "path", path)
	return getJSON(ctx, s.session.API, s.endpoint(path), params, result)
}

func (s *SoundCloudService) limitParams() url.Values {
	return url.Values{"limit": {strconv.Itoa(s.cfg.Limit())}}
}

// recordList decodes either a bare array or a {"collection": [...]} page.
type recordList []models.Record

func (l *recordList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]models.Record)(l))
	}
	var page struct {
		Collection []models.Record `json:"collection"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	*l = page.Collection
	return nil
}

func (s *SoundCloudService) getList(ctx context.Context, path string, params url.Values) ([]models.Record, error) {
	var list recordList
	if err := s.get(ctx, path, params, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// userPath returns "me/<suffix>" or "users/<id>/<suffix>".
func userPath(userID, suffix string) string {
	if userID == "" {
		return "me/" + suffix
	}
	return fmt.Sprintf("users/%s/%s", shared.SafeURL(userID), suffix)
}

func (s *SoundCloudService) fetchMe(ctx context.Context) (*models.User, error) {
	return s.users.Do("me", func() (*models.User, error) {
		var rec models.Record
		if err := s.get(ctx, "me", nil, &rec); err != nil {
			return nil, err
		}
		return &models.User{ID: rec.ID.String(), Username: rec.DisplayName()}, nil
	})
}

// Me returns the authenticated account or nil.
func (s *SoundCloudService) Me(ctx context.Context) *models.User {
	u, err := s.fetchMe(ctx)
	if err != nil {
		s.logger.Error("failed to fetch identity", "err", err)
		return nil
	}
	return u
}

// GetRawTrack returns the remote record of a track or nil.
func (s *SoundCloudService) GetRawTrack(ctx context.Context, id string) *models.Record {
	rec, err := cache.Call(s.tracks, "tracks", func() (*models.Record, error) {
		var rec models.Record
		if err := s.get(ctx, "tracks/"+shared.SafeURL(id), nil, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}, id)
	if err != nil {
		s.logger.Warn("failed to fetch track", "id", id, "err", err)
		return nil
	}
	return rec
}

// GetTrack returns the track with a catalog URI or nil.
func (s *SoundCloudService) GetTrack(ctx context.Context, id string) *models.Track {
	return s.GetParsedTrack(ctx, id, false)
}

// GetParsedTrack fetches and parses a track, resolving a playable URL when streamable is set.
func (s *SoundCloudService) GetParsedTrack(ctx context.Context, id string, streamable bool) *models.Track {
	s.logger.Debug("getting info for track", "id", id)
	rec := s.GetRawTrack(ctx, id)
	if rec == nil {
		return nil
	}
	return s.parser.ParseTrack(ctx, rec, streamable)
}

// GetStreamableURL resolves the playable URL of rec, or returns "".
func (s *SoundCloudService) GetStreamableURL(ctx context.Context, rec *models.Record) string {
	u, err := s.streams.StreamableURL(ctx, rec)
	if err != nil {
		s.logger.Warn("failed to resolve stream", "err", err)
		return ""
	}
	return u
}

// GetSet returns the raw track records of a playlist, empty when it cannot be fetched.
func (s *SoundCloudService) GetSet(ctx context.Context, setID string) []models.Record {
	tracks, err := cache.Call(s.sets, "playlists", func() ([]models.Record, error) {
		var rec models.Record
		if err := s.get(ctx, "playlists/"+shared.SafeURL(setID), nil, &rec); err != nil {
			return nil, err
		}
		return rec.Tracks, nil
	}, setID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("set not found", "id", setID)
		} else {
			s.logger.Warn("failed to fetch set", "id", setID, "err", err)
		}
		return []models.Record{}
	}
	return tracks
}

// GetSets lists the playlists of the authenticated user, or of userID when set.
func (s *SoundCloudService) GetSets(ctx context.Context, userID string) []models.Set {
	sets, err := cache.Call(s.playlists, "sets", func() ([]models.Set, error) {
		recs, err := s.getList(ctx, userPath(userID, "playlists"), s.limitParams())
		if err != nil {
			return nil, err
		}
		sets := make([]models.Set, 0, len(recs))
		for _, rec := range recs {
			s.logger.Debug("fetched set", "name", rec.TitleOf(), "id", rec.ID, "tracks", len(rec.Tracks))
			sets = append(sets, models.Set{Name: rec.TitleOf(), ID: rec.ID.String(), Tracks: rec.Tracks})
		}
		return sets, nil
	}, userID)
	if err != nil {
		s.logger.Warn("failed to fetch sets", "user", userID, "err", err)
		return []models.Set{}
	}
	return sets
}

// listing fetches a track listing under the short listing TTL.
func (s *SoundCloudService) listing(ctx context.Context, op string, fetch func() ([]models.Track, error), args ...any) []models.Track {
	tracks, err := cache.Call(s.listings, op, fetch, args...)
	if err != nil {
		s.logger.Warn("failed to fetch listing", "op", op, "args", args, "err", err)
		return []models.Track{}
	}
	return tracks
}

func (s *SoundCloudService) parsedList(ctx context.Context, path string, params url.Values) ([]models.Track, error) {
	recs, err := s.getList(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseResults(ctx, recs, false), nil
}

// GetLikes returns liked tracks, expanding liked playlists.
func (s *SoundCloudService) GetLikes(ctx context.Context, userID string) []models.Track {
	return s.listing(ctx, "likes", func() ([]models.Track, error) {
		return s.parsedList(ctx, userPath(userID, "likes"), s.limitParams())
	}, userID)
}

// GetTracks returns the tracks uploaded by the authenticated user, or by userID when set.
func (s *SoundCloudService) GetTracks(ctx context.Context, userID string) []models.Track {
	return s.listing(ctx, "tracks", func() ([]models.Track, error) {
		return s.parsedList(ctx, userPath(userID, "tracks"), s.limitParams())
	}, userID)
}

// GetFollowings lists the accounts followed by the authenticated user, or by userID.
func (s *SoundCloudService) GetFollowings(ctx context.Context, userID string) []models.Following {
	users, err := cache.Call(s.followings, "followings", func() ([]models.Following, error) {
		recs, err := s.getList(ctx, userPath(userID, "followings"), s.limitParams())
		if err != nil {
			return nil, err
		}
		users := make([]models.Following, 0, len(recs))
		for _, rec := range recs {
			s.logger.Debug("fetched user", "name", rec.DisplayName(), "id", rec.ID)
			users = append(users, models.Following{Name: rec.DisplayName(), ID: rec.ID.String()})
		}
		return users, nil
	}, userID)
	if err != nil {
		s.logger.Warn("failed to fetch followings", "user", userID, "err", err)
		return []models.Following{}
	}
	return users
}

// GetUserStream returns tracks from the activity feed: track activities
// contribute their origin, playlist activities their nested tracks.
func (s *SoundCloudService) GetUserStream(ctx context.Context) []models.Track {
	return s.listing(ctx, "stream", func() ([]models.Track, error) {
		items, err := s.getList(ctx, "me/activities", s.limitParams())
		if err != nil {
			return nil, err
		}

		var tracks []*models.Track
		for _, item := range items {
			kind := item.TypeOf()
			switch {
			case item.Origin == nil:
				continue
			case strings.Contains(kind, kindTrack):
				tracks = append(tracks, s.parser.ParseTrack(ctx, item.Origin, false))
			case strings.Contains(kind, kindPlaylist):
				for _, t := range s.parser.ParseResults(ctx, item.Origin.Tracks, false) {
					tracks = append(tracks, &t)
				}
			}
		}
		return shared.Sanitize(tracks), nil
	})
}

// Search returns streamable tracks matching query.
func (s *SoundCloudService) Search(ctx context.Context, query string) []models.Track {
	params := s.limitParams()
	params.Set("q", query)
	params.Set("filter", "streamable")
	params.Set("order", "hotness")

	return s.listing(ctx, "search", func() ([]models.Track, error) {
		return s.parsedList(ctx, "tracks", params)
	}, query)
}

// ResolveURL flattens a SoundCloud web URL into tracks: a track URL yields one,
// a set URL every track in the set, a user URL the user's tracks. Other URLs
// yield an empty list without a request.
func (s *SoundCloudService) ResolveURL(ctx context.Context, rawURL string) []models.Track {
	if !IsSoundCloudURL(rawURL) {
		s.logger.Debug("not a SoundCloud URL", "url", rawURL)
		return []models.Track{}
	}

	var rec models.Record
	if err := s.get(ctx, "resolve", url.Values{"url": {rawURL}}, &rec); err != nil {
		s.logger.Warn("failed to resolve url", "url", rawURL, "err", err)
		return []models.Track{}
	}

	if rec.KindOf() == kindUser {
		return s.GetTracks(ctx, rec.ID.String())
	}
	return s.parser.ParseResults(ctx, []models.Record{rec}, false)
}

// ResolveTracks fetches many tracks concurrently with a bounded worker pool
// and returns those that parsed. Order follows ids.
func (s *SoundCloudService) ResolveTracks(ctx context.Context, ids []string) []models.Track {
	batch := shared.GenerateID()
	logger := s.logger.With("batch", batch)
	logger.Debug("resolving tracks", "count", len(ids), "workers", s.workers)

	results := make([]*models.Track, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, id := range ids {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					logger.Warn("batch pacing interrupted", "id", id, "err", err)
					return nil
				}
			}
			results[i] = s.GetTrack(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	tracks := shared.Sanitize(results)
	logger.Debug("resolved tracks", "requested", len(ids), "resolved", len(tracks))
	return tracks
}

// Lookup maps a browse or track URI onto the matching operation.
func (s *SoundCloudService) Lookup(ctx context.Context, uri string) []models.Track {
	const directory = "soundcloud:directory:"

	switch {
	case strings.HasPrefix(uri, directory+"stream"):
		return s.GetUserStream(ctx)
	case strings.HasPrefix(uri, directory+"liked"):
		return s.GetLikes(ctx, "")
	case strings.HasPrefix(uri, directory+"sets"):
		id := strings.TrimPrefix(strings.TrimPrefix(uri, directory+"sets"), "/")
		if id == "" {
			return []models.Track{}
		}
		return s.parser.ParseResults(ctx, s.GetSet(ctx, id), false)
	case strings.HasPrefix(uri, directory+"following"):
		id := strings.TrimPrefix(strings.TrimPrefix(uri, directory+"following"), "/")
		if id == "" {
			return []models.Track{}
		}
		return s.GetTracks(ctx, id)
	case strings.HasPrefix(uri, "sc:"):
		return s.ResolveURL(ctx, strings.TrimPrefix(uri, "sc:"))
	}

	id, err := ParseTrackURI(uri)
	if err != nil {
		s.logger.Error("failed to lookup", "uri", uri, "err", err)
		return []models.Track{}
	}
	track := s.GetTrack(ctx, id)
	if track == nil {
		s.logger.Info("failed to lookup: SoundCloud track not found", "uri", uri)
		return []models.Track{}
	}
	return []models.Track{*track}
}
