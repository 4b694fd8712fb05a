package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'Authorization: OAuth 2-123-456-abc' https://api.soundcloud.com/me`,
			wantHeaders: map[string]string{"Authorization": "OAuth 2-123-456-abc"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "Authorization: OAuth 2-123-456-abc" https://api.soundcloud.com/me`,
			wantHeaders: map[string]string{"Authorization": "OAuth 2-123-456-abc"},
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'Accept: application/json' -H 'Authorization: OAuth token' https://api.soundcloud.com/me`,
			wantHeaders: map[string]string{
				"Accept":        "application/json",
				"Authorization": "OAuth token",
			},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'sc_anonymous_id=abc123' https://soundcloud.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "sc_anonymous_id=abc123",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl -H 'Cookie: session=abc123' -H 'Authorization: OAuth token' https://api.soundcloud.com`,
			wantHeaders: map[string]string{"Authorization": "OAuth token"},
			wantCookie:  "session=abc123",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.soundcloud.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'https://api-v2.soundcloud.com/me' \
  -H 'accept: application/json, text/javascript, */*; q=0.1' \
  -H 'authorization: OAuth 2-290000-1111-zzz' \
  --compressed`,
			wantHeaders: map[string]string{
				"accept":        "application/json, text/javascript, */*; q=0.1",
				"authorization": "OAuth 2-290000-1111-zzz",
			},
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://api.soundcloud.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantHeaders, result.Headers)
			assert.Equal(t, tc.wantCookie, result.Cookie)
		})
	}
}

func TestCurlHeaders_AuthToken(t *testing.T) {
	t.Run("OAuth header", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"authorization": "OAuth 2-290000-1111-zzz"}}
		token, err := h.AuthToken()
		require.NoError(t, err)
		assert.Equal(t, "2-290000-1111-zzz", token)
	})

	t.Run("missing header", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"Accept": "*/*"}}
		_, err := h.AuthToken()
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("bearer scheme rejected", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"Authorization": "Bearer abc"}}
		_, err := h.AuthToken()
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		curlCmd := `curl -H 'Authorization: OAuth token123' -H 'Accept: application/json' https://api.soundcloud.com/me`
		require.NoError(t, os.WriteFile(curlFile, []byte(curlCmd), 0644))

		result, err := ParseCurlFile(curlFile)
		require.NoError(t, err)
		assert.Len(t, result.Headers, 2)

		token, err := result.AuthToken()
		require.NoError(t, err)
		assert.Equal(t, "token123", token)
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := ParseCurlFile("/nonexistent/file.sh")
		assert.Error(t, err)
	})
}
