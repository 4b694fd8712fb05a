// package models defines the data model for the SoundCloud backend
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AlbumName is the album every parsed track belongs to.
const AlbumName = "SoundCloud"

// UnknownArtist is used when a record carries neither a label nor an uploader name.
const UnknownArtist = "Unknown label"

// Artist owns a track: the label name or the uploader's username.
type Artist struct {
	Name string `json:"name"`
}

// Album groups tracks under the constant [AlbumName] with optional artwork.
type Album struct {
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
}

// Image is a sized artwork reference.
type Image struct {
	URI    string `json:"uri"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Track is a playable item. It is built once by the parser and never mutated.
type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Length  int64    `json:"length"` // milliseconds
	Comment string   `json:"comment"`
	Date    string   `json:"date,omitempty"`
	Artists []Artist `json:"artists,omitempty"`
	Album   *Album   `json:"album,omitempty"`
}

// TrackURI returns the playable or catalog URI of the track.
func (t Track) TrackURI() string { return t.URI }

// ArtistName returns the first artist's name or an empty string.
func (t Track) ArtistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// Set is a playlist owned by a user. Tracks are raw records, parsed lazily by callers.
type Set struct {
	Name   string   `json:"name"`
	ID     string   `json:"id"`
	Tracks []Record `json:"tracks"`
}

// User is the authenticated account (or any account returned by the API).
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Following is an account followed by a user.
type Following struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ID is a remote identifier that may arrive as a JSON number or string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical decimal identifiers as numbers. Anything that
// would not survive as a JSON number, such as "007" or "+5", stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the identifier as text.
func (id ID) String() string { return string(id) }

// RecordUser is the uploader embedded in track and playlist records.
type RecordUser struct {
	ID        ID      `json:"id"`
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Transcoding is one stream descriptor of an api-v2 track.
type Transcoding struct {
	URL     string `json:"url"`
	Preset  string `json:"preset"`
	Snipped bool   `json:"snipped"`
	Format  struct {
		Protocol string `json:"protocol"`
		MimeType string `json:"mime_type"`
	} `json:"format"`
}

// IsPreview reports whether the transcoding only covers a snippet of the track.
func (t Transcoding) IsPreview() bool {
	return t.Snipped || strings.Contains(t.URL, "/preview/")
}

// Media holds the transcodings of an api-v2 track.
type Media struct {
	Transcodings []Transcoding `json:"transcodings"`
}

// Record is any item returned by the remote API. All fields are optional.
type Record struct {
	Kind                 *string     `json:"kind,omitempty"`
	ID                   ID          `json:"id,omitempty"`
	Streamable           *bool       `json:"streamable,omitempty"`
	Title                *string     `json:"title,omitempty"`
	LabelName            *string     `json:"label_name,omitempty"`
	User                 *RecordUser `json:"user,omitempty"`
	Username             *string     `json:"username,omitempty"`
	AvatarURL            *string     `json:"avatar_url,omitempty"`
	ArtworkURL           *string     `json:"artwork_url,omitempty"`
	CalculatedArtworkURL *string     `json:"calculated_artwork_url,omitempty"`
	Duration             *float64    `json:"duration,omitempty"`
	PermalinkURL         *string     `json:"permalink_url,omitempty"`
	Date                 *string     `json:"date,omitempty"`
	StreamURL            *string     `json:"stream_url,omitempty"`
	Sharing              *string     `json:"sharing,omitempty"`
	Type                 *string     `json:"type,omitempty"`
	Tracks               []Record    `json:"tracks,omitempty"`
	Origin               *Record     `json:"origin,omitempty"`
	Media                *Media      `json:"media,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// KindOf returns the record kind or an empty string.
func (r *Record) KindOf() string { return deref(r.Kind) }

// TitleOf returns the title or an empty string.
func (r *Record) TitleOf() string { return deref(r.Title) }

// HasTitle reports whether the record carries a title field.
func (r *Record) HasTitle() bool { return r.Title != nil }

// IsStreamable reports whether the streamable flag is present and true.
func (r *Record) IsStreamable() bool { return r.Streamable != nil && *r.Streamable }

// DurationMS returns the duration in milliseconds, 0 when absent or negative.
func (r *Record) DurationMS() int64 {
	if r.Duration == nil || *r.Duration < 0 {
		return 0
	}
	return int64(*r.Duration)
}

// Permalink returns the permalink URL or an empty string.
func (r *Record) Permalink() string { return deref(r.PermalinkURL) }

// SharingOf returns the sharing visibility ("public", "private") or an empty string.
func (r *Record) SharingOf() string { return deref(r.Sharing) }

// StreamURLOf returns the private stream endpoint or an empty string.
func (r *Record) StreamURLOf() string { return deref(r.StreamURL) }

// ArtistName applies the label → uploader → [UnknownArtist] rule.
func (r *Record) ArtistName() string {
	if label := deref(r.LabelName); label != "" {
		return label
	}
	if r.User != nil {
		if name := deref(r.User.Username); name != "" {
			return name
		}
	}
	return UnknownArtist
}

// ArtworkURLOf returns the track artwork, falling back to the uploader avatar.
func (r *Record) ArtworkURLOf() string {
	if art := deref(r.ArtworkURL); art != "" {
		return art
	}
	if r.User != nil {
		return deref(r.User.AvatarURL)
	}
	return ""
}

// DisplayName returns the username of a user record.
func (r *Record) DisplayName() string { return deref(r.Username) }

// TypeOf returns the activity type or an empty string.
func (r *Record) TypeOf() string { return deref(r.Type) }
