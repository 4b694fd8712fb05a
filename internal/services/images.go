package services

import (
	"context"

	"github.com/desertthunder/scloud/internal/models"
)

// GetImages maps each URI to its artwork. Playlists collect the artwork of
// every track; other kinds use the track record. Results are cached per kind
// and id, and URIs that cannot be parsed are left out.
func (s *SoundCloudService) GetImages(ctx context.Context, uris []string) map[string][]models.Image {
	result := make(map[string][]models.Image, len(uris))

	for _, uri := range uris {
		ref, err := parseImageURI(uri)
		if err != nil {
			s.logger.Debug("skipping image uri", "uri", uri, "err", err)
			continue
		}

		images, _ := s.images.Do(ref.key(), func() ([]models.Image, error) {
			if ref.kind == kindPlaylist {
				return s.setImages(ctx, ref.id), nil
			}
			return Images(s.GetRawTrack(ctx, ref.id)), nil
		})
		result[uri] = images
	}
	return result
}

func (s *SoundCloudService) setImages(ctx context.Context, setID string) []models.Image {
	var images []models.Image
	tracks := s.GetSet(ctx, setID)
	for i := range tracks {
		images = append(images, Images(&tracks[i])...)
	}
	return images
}
