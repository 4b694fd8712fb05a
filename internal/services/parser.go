package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

const (
	kindTrack    = "track"
	kindPlaylist = "playlist"
	kindUser     = "user"

	artworkSize = 500
)

// StreamResolver turns a track record into a playable media URL.
type StreamResolver interface {
	StreamableURL(ctx context.Context, rec *models.Record) (string, error)
}

// Parser builds [models.Track] values from remote records.
type Parser struct {
	streams StreamResolver
	logger  *log.Logger
}

// NewParser creates a [Parser]. streams may be nil when playable URLs are never requested.
func NewParser(streams StreamResolver, logger *log.Logger) *Parser {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Parser{streams: streams, logger: logger}
}

// CatalogURI renders the stable URI of a track: soundcloud:song/<readable title>.<id>.
func CatalogURI(title string, id models.ID) string {
	return fmt.Sprintf("soundcloud:song/%s.%s", shared.ReadableURL(title), id)
}

// ArtworkURL rewrites the size token of an artwork URL to the 500x500 variant.
func ArtworkURL(raw string) string {
	return strings.ReplaceAll(raw, "large", "t500x500")
}

// ParseTrack converts rec into a track or returns nil.
//
// Records that are missing, not streamable or not of kind "track" yield nil.
// With streamable set the URI is a resolved media URL and a record whose
// stream cannot be resolved yields nil; otherwise the catalog URI is used.
func (p *Parser) ParseTrack(ctx context.Context, rec *models.Record, streamable bool) *models.Track {
	if rec == nil {
		return nil
	}
	if !rec.IsStreamable() {
		p.logger.Info("track can't be streamed from SoundCloud", "title", rec.TitleOf())
		return nil
	}
	if rec.KindOf() != kindTrack {
		p.logger.Debug("record is not a track", "title", rec.TitleOf(), "kind", rec.KindOf())
		return nil
	}

	track := &models.Track{
		Name:    rec.TitleOf(),
		Length:  rec.DurationMS(),
		Comment: rec.Permalink(),
	}
	if rec.Date != nil {
		track.Date = *rec.Date
	}

	if rec.HasTitle() {
		track.Artists = []models.Artist{{Name: rec.ArtistName()}}
		track.Album = &models.Album{Name: models.AlbumName}
		if art := rec.ArtworkURLOf(); art != "" {
			track.Album.Images = []string{ArtworkURL(art)}
		}
	}

	if streamable {
		uri, err := p.streamURL(ctx, rec)
		if err != nil || uri == "" {
			p.logger.Info("track can't be streamed from SoundCloud", "title", rec.TitleOf(), "err", err)
			return nil
		}
		track.URI = uri
	} else {
		track.URI = CatalogURI(rec.TitleOf(), rec.ID)
	}

	return track
}

func (p *Parser) streamURL(ctx context.Context, rec *models.Record) (string, error) {
	if p.streams == nil {
		return "", shared.ErrNotStreamable
	}
	return p.streams.StreamableURL(ctx, rec)
}

// ParseResults parses tracks and expands playlists into their nested tracks.
// Unknown kinds are skipped and the result never contains failed parses.
func (p *Parser) ParseResults(ctx context.Context, recs []models.Record, streamable bool) []models.Track {
	tracks := make([]*models.Track, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		switch rec.KindOf() {
		case kindTrack:
			tracks = append(tracks, p.ParseTrack(ctx, rec, streamable))
		case kindPlaylist:
			for j := range rec.Tracks {
				tracks = append(tracks, p.ParseTrack(ctx, &rec.Tracks[j], streamable))
			}
		default:
			p.logger.Warn("skipping unknown result kind", "kind", rec.KindOf(), "id", rec.ID)
		}
	}
	return shared.Sanitize(tracks)
}

// Images returns the artwork of rec normalized to 500x500.
//
// Avatars are used only when the record has no artwork of its own.
func Images(rec *models.Record) []models.Image {
	if rec == nil {
		return nil
	}

	sources := []*string{rec.ArtworkURL, rec.CalculatedArtworkURL}
	if rec.ArtworkURL == nil && rec.CalculatedArtworkURL == nil {
		sources = sources[:0]
		if rec.User != nil {
			sources = append(sources, rec.User.AvatarURL)
		}
		sources = append(sources, rec.AvatarURL)
	}

	var images []models.Image
	for _, src := range sources {
		if src == nil || *src == "" {
			continue
		}
		images = append(images, models.Image{URI: ArtworkURL(*src), Height: artworkSize, Width: artworkSize})
	}
	return images
}
