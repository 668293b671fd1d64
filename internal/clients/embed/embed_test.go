package embed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://vidsrc.cc/v2/embed"

func TestCompose(t *testing.T) {
	assert.Equal(t, base+"/movie/tt0133093", Compose(base, MovieTarget("tt0133093")))
	assert.Equal(t, base+"/tv/tt0903747/1/1", Compose(base, EpisodeTarget("tt0903747", 1, 1)))
	assert.Equal(t, base+"/tv/tt0903747/3/7", Compose(base+"/", EpisodeTarget("tt0903747", 3, 7)))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Series")
	require.NoError(t, err)
	assert.Equal(t, KindSeries, k)

	k, err = ParseKind("movie")
	require.NoError(t, err)
	assert.Equal(t, KindMovie, k)

	_, err = ParseKind("game")
	assert.Error(t, err)
}

func TestNewNavigationPolicy(t *testing.T) {
	p, err := NewNavigationPolicy(base, []string{
		"allow-forms", "allow-scripts", " ALLOW-SCRIPTS ", "allow-top-navigation-by-user-activation",
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "allow-forms allow-scripts allow-top-navigation-by-user-activation", p.SandboxAttr())
	assert.Equal(t, "https://vidsrc.cc", p.FrameOrigin)
	assert.Equal(t, "frame-src https://vidsrc.cc", p.ContentSecurityPolicy())
}

func TestNewNavigationPolicy_RejectsUngestured(t *testing.T) {
	for _, token := range []string{"allow-popups", "allow-top-navigation", "allow-popups-to-escape-sandbox"} {
		_, err := NewNavigationPolicy(base, []string{"allow-scripts", token}, true)
		assert.True(t, errors.Is(err, ErrUnsafeSandbox), token)
	}
}

func TestNewNavigationPolicy_InvalidBase(t *testing.T) {
	_, err := NewNavigationPolicy("not a url", nil, true)
	assert.Error(t, err)
}

func TestInstall_Once(t *testing.T) {
	t.Cleanup(func() {
		installMu.Lock()
		installed = nil
		installMu.Unlock()
	})

	_, ok := Installed()
	assert.False(t, ok)

	p, err := NewNavigationPolicy(base, []string{"allow-scripts"}, true)
	require.NoError(t, err)
	require.NoError(t, Install(p))

	other, err := NewNavigationPolicy("https://other.example", nil, false)
	require.NoError(t, err)
	assert.ErrorIs(t, Install(other), ErrPolicyInstalled)

	got, ok := Installed()
	require.True(t, ok)
	assert.Same(t, p, got)

	assert.Error(t, Install(nil))
}
