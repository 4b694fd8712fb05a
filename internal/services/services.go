package services

import (
	"context"

	"github.com/desertthunder/scloud/internal/models"
)

// Service is what browsing and playback callers need from a SoundCloud client.
//
// Implementations never return errors: failures are logged and surface as nil
// tracks or empty lists.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Me returns the authenticated account.
	Me(ctx context.Context) *models.User

	// GetTrack returns a track with its catalog URI.
	GetTrack(ctx context.Context, id string) *models.Track

	// GetParsedTrack returns a track, with a playable URI when streamable is set.
	GetParsedTrack(ctx context.Context, id string, streamable bool) *models.Track

	// GetRawTrack returns the unparsed remote record of a track.
	GetRawTrack(ctx context.Context, id string) *models.Record

	// GetSet returns the unparsed tracks of a playlist.
	GetSet(ctx context.Context, setID string) []models.Record

	// GetSets lists playlists of the authenticated user, or of userID.
	GetSets(ctx context.Context, userID string) []models.Set

	GetLikes(ctx context.Context, userID string) []models.Track
	GetTracks(ctx context.Context, userID string) []models.Track
	GetFollowings(ctx context.Context, userID string) []models.Following
	GetUserStream(ctx context.Context) []models.Track

	// Search returns streamable tracks matching query.
	Search(ctx context.Context, query string) []models.Track

	// ResolveURL flattens a SoundCloud web URL into tracks.
	ResolveURL(ctx context.Context, rawURL string) []models.Track

	// ResolveTracks fetches many tracks concurrently.
	ResolveTracks(ctx context.Context, ids []string) []models.Track

	// GetStreamableURL resolves the playable URL of a record.
	GetStreamableURL(ctx context.Context, rec *models.Record) string

	// Lookup maps a browse or track URI onto tracks.
	Lookup(ctx context.Context, uri string) []models.Track

	// GetImages maps URIs to artwork.
	GetImages(ctx context.Context, uris []string) map[string][]models.Image
}

var _ Service = (*SoundCloudService)(nil)
