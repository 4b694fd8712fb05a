// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/scloud/internal/models"
)

// MockService is a test double for services.Service that returns canned values
// and records the operations it was asked for.
type MockService struct {
	mu    sync.Mutex
	calls []string

	User       *models.User
	Tracks     []models.Track
	Records    []models.Record
	Sets       []models.Set
	Followings []models.Following
	Images     map[string][]models.Image
	StreamURL  string
}

func (m *MockService) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
}

// Calls returns the operations invoked so far, in order.
func (m *MockService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockService) first() *models.Track {
	if len(m.Tracks) == 0 {
		return nil
	}
	t := m.Tracks[0]
	return &t
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Me(ctx context.Context) *models.User {
	m.record("Me")
	return m.User
}

func (m *MockService) GetTrack(ctx context.Context, id string) *models.Track {
	m.record("GetTrack")
	return m.first()
}

func (m *MockService) GetParsedTrack(ctx context.Context, id string, streamable bool) *models.Track {
	m.record("GetParsedTrack")
	t := m.first()
	if t != nil && streamable {
		t.URI = m.StreamURL
	}
	return t
}

func (m *MockService) GetRawTrack(ctx context.Context, id string) *models.Record {
	m.record("GetRawTrack")
	if len(m.Records) == 0 {
		return nil
	}
	r := m.Records[0]
	return &r
}

func (m *MockService) GetSet(ctx context.Context, setID string) []models.Record {
	m.record("GetSet")
	return m.Records
}

func (m *MockService) GetSets(ctx context.Context, userID string) []models.Set {
	m.record("GetSets")
	return m.Sets
}

func (m *MockService) GetLikes(ctx context.Context, userID string) []models.Track {
	m.record("GetLikes")
	return m.Tracks
}

func (m *MockService) GetTracks(ctx context.Context, userID string) []models.Track {
	m.record("GetTracks")
	return m.Tracks
}

func (m *MockService) GetFollowings(ctx context.Context, userID string) []models.Following {
	m.record("GetFollowings")
	return m.Followings
}

func (m *MockService) GetUserStream(ctx context.Context) []models.Track {
	m.record("GetUserStream")
	return m.Tracks
}

func (m *MockService) Search(ctx context.Context, query string) []models.Track {
	m.record("Search")
	return m.Tracks
}

func (m *MockService) ResolveURL(ctx context.Context, rawURL string) []models.Track {
	m.record("ResolveURL")
	return m.Tracks
}

func (m *MockService) ResolveTracks(ctx context.Context, ids []string) []models.Track {
	m.record("ResolveTracks")
	return m.Tracks
}

func (m *MockService) GetStreamableURL(ctx context.Context, rec *models.Record) string {
	m.record("GetStreamableURL")
	return m.StreamURL
}

func (m *MockService) Lookup(ctx context.Context, uri string) []models.Track {
	m.record("Lookup")
	return m.Tracks
}

func (m *MockService) GetImages(ctx context.Context, uris []string) map[string][]models.Image {
	m.record("GetImages")
	return m.Images
}

// TrackJSON builds a streamable track record as the API would send it.
func TrackJSON(id int64, title string) map[string]any {
	return map[string]any{
		"kind":          "track",
		"id":            id,
		"title":         title,
		"streamable":    true,
		"duration":      5000,
		"permalink_url": "https://soundcloud.com/user/" + title,
		"user":          map[string]any{"id": 1, "username": "uploader", "avatar_url": "https://i1.sndcdn.com/avatars-large.jpg"},
	}
}

// PlaylistJSON builds a playlist record with the given nested tracks.
func PlaylistJSON(id int64, title string, tracks ...map[string]any) map[string]any {
	return map[string]any{
		"kind":   "playlist",
		"id":     id,
		"title":  title,
		"tracks": tracks,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// RoundTripFunc adapts a function to [http.RoundTripper].
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// NopBody wraps s as a response body.
func NopBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
