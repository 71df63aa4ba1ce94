package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.2.0", "1.1.9", 1},
		{"2.0.0", "1.9.9", 1},
		{"1.0", "1.0.0", 0},
		{"1.0.0-rc1", "1.0.0", 0},
		{"dev", "1.0.0", -1},
		{"", "1.0.0", -1},
		{"abc1234", "1.0.0", -1},
		{"dev", "dev", 0},
		{"1.0.0", "dev", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Compare(tc.a, tc.b), "%s vs %s", tc.a, tc.b)
	}
}

func TestIsNewer(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNewer("1.0.0", "1.1.0"))
	assert.False(t, IsNewer("1.1.0", "1.0.0"))
	assert.True(t, IsNewer("dev", "0.0.1"))
}

func TestLatestRelease(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/mrz1836/lantern/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.3","name":"v1.2.3"}`))
	}))
	defer server.Close()

	release, err := NewClient(server.URL).LatestRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", release.TagName)
}

func TestLatestReleaseNon200(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).LatestRelease(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReleaseAPIFailed)
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Contains(t, String(), "lantern")
	assert.Contains(t, String(), Version)
}
