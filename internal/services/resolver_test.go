package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/scloud/internal/models"
	"github.com/desertthunder/scloud/internal/shared"
)

func TestParseTrackURI(t *testing.T) {
	tc := []struct {
		name string
		uri  string
		want string
	}{
		{name: "catalog uri", uri: "soundcloud:song/Foo Bar.42", want: "42"},
		{name: "dots in name", uri: "soundcloud:song/Burial Four Tet - Nova (Remix.Edit).38720262", want: "38720262"},
		{name: "no slash", uri: "soundcloud:song.38720262", want: "38720262"},
		{name: "bare id", uri: "38720262", want: "38720262"},
		{name: "empty name", uri: "soundcloud:song/.7", want: "7"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTrackURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		for _, uri := range []string{"", "soundcloud:song/name.", "   "} {
			_, err := ParseTrackURI(uri)
			assert.ErrorIs(t, err, shared.ErrInvalidURI, uri)
		}
	})

	t.Run("from track", func(t *testing.T) {
		id, err := ParseTrackRef(models.Track{URI: "soundcloud:song.38720262"})
		require.NoError(t, err)
		assert.Equal(t, "38720262", id)

		_, err = ParseTrackRef(nil)
		assert.ErrorIs(t, err, shared.ErrInvalidURI)
	})

	t.Run("round trip with catalog uri", func(t *testing.T) {
		for _, title := range []string{"Foo Bar", "a.b.c", "v1.2 (final).wav", "D∃∃P Hau⑀"} {
			id, err := ParseTrackURI(CatalogURI(title, "123456"))
			require.NoError(t, err)
			assert.Equal(t, "123456", id, title)
		}
	})
}

func TestIsSoundCloudURL(t *testing.T) {
	valid := []string{
		"https://soundcloud.com/bbc-radio-4/m-w-cloud",
		"http://soundcloud.com/user/sets/mix",
		"https://m.soundcloud.com/user",
	}
	invalid := []string{
		"https://example.com/bbc-radio-4/m-w-cloud",
		"https://soundcloud.com/",
		"https://notsoundcloud.com/user",
		"soundcloud:song/a.1",
		"ftp://soundcloud.com/user",
		"",
	}

	for _, u := range valid {
		assert.True(t, IsSoundCloudURL(u), u)
	}
	for _, u := range invalid {
		assert.False(t, IsSoundCloudURL(u), u)
	}
}

func TestParseImageURI(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		ref, err := parseImageURI("soundcloud:song/Foo Bar.42")
		require.NoError(t, err)
		assert.Equal(t, "song", ref.kind)
		assert.Equal(t, "42", ref.id)
		assert.Equal(t, "song/42", ref.key())
	})

	t.Run("web playlist", func(t *testing.T) {
		ref, err := parseImageURI("https://soundcloud.com/playlist/123")
		require.NoError(t, err)
		assert.Equal(t, "playlist", ref.kind)
		assert.Equal(t, "123", ref.id)
	})

	t.Run("unsupported", func(t *testing.T) {
		for _, uri := range []string{"soundcloud:directory:liked", "soundcloud:user/1", "https://example.com/song/1", "spotify:track:1"} {
			_, err := parseImageURI(uri)
			assert.ErrorIs(t, err, shared.ErrInvalidURI, uri)
		}
	})
}
