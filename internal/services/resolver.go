package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/scloud/internal/shared"
)

// URIHolder is anything that carries a track URI, such as [models.Track].
type URIHolder interface {
	TrackURI() string
}

// ParseTrackURI extracts the identifier after the last dot of a URI shaped like
// "soundcloud:song/<name>.<id>". A value without a dot is returned as is.
func ParseTrackURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if i := strings.LastIndexByte(uri, '.'); i >= 0 {
		uri = uri[i+1:]
	}
	if uri == "" {
		return "", fmt.Errorf("%w: no track id", shared.ErrInvalidURI)
	}
	return uri, nil
}

// ParseTrackRef extracts the identifier from the URI of ref.
func ParseTrackRef(ref URIHolder) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("%w: nil reference", shared.ErrInvalidURI)
	}
	return ParseTrackURI(ref.TrackURI())
}

// IsSoundCloudURL reports whether raw is an http(s) URL on the SoundCloud web host
// with a non-empty path, the only shape the resolve endpoint accepts.
func IsSoundCloudURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "soundcloud.com" && !strings.HasSuffix(host, ".soundcloud.com") {
		return false
	}
	return strings.Trim(u.Path, "/") != ""
}

// imageRef is a parsed artwork lookup key.
type imageRef struct {
	uri  string
	kind string // song, album, artist or playlist
	id   string
}

func (r imageRef) key() string { return r.kind + "/" + r.id }

var imageKinds = map[string]bool{"song": true, "album": true, "artist": true, "playlist": true}

// parseImageURI accepts "soundcloud:<kind>/<name>.<id>" and
// "https://soundcloud.com/<kind>/<id>".
func parseImageURI(raw string) (imageRef, error) {
	var kind, rest string

	switch {
	case strings.HasPrefix(raw, "soundcloud:"):
		parts := strings.SplitN(strings.TrimPrefix(raw, "soundcloud:"), "/", 3)
		if len(parts) >= 2 {
			kind, rest = parts[0], parts[1]
		}
	case IsSoundCloudURL(raw):
		u, _ := url.Parse(raw)
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 3)
		if len(parts) >= 2 {
			kind, rest = parts[0], parts[1]
		}
	}

	if !imageKinds[kind] || rest == "" {
		return imageRef{}, fmt.Errorf("%w: could not parse %q as a SoundCloud URI", shared.ErrInvalidURI, raw)
	}

	id, err := ParseTrackURI(rest)
	if err != nil {
		return imageRef{}, err
	}
	return imageRef{uri: raw, kind: kind, id: id}, nil
}
