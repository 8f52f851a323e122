package dashboard

import (
	"context"
	"errors"
	"testing"

	"octopanel/pkg/sdk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings struct {
	settings *sdk.SiteSettings
	err      error
}

func (f *fakeSettings) GetSiteSettings(ctx context.Context) (*sdk.SiteSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.settings
	return &s, nil
}

func TestSettingsStoreLoadAndReload(t *testing.T) {
	fetch := &fakeSettings{settings: &sdk.SiteSettings{Name: "Panel", Locale: "en"}}
	store := NewSettingsStore(fetch, nil)

	_, ok := store.Get()
	assert.False(t, ok)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Panel", got.Name)

	fetch.settings = &sdk.SiteSettings{Name: "Renamed", Locale: "de"}
	require.NoError(t, store.Reload(context.Background()))
	current, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "Renamed", current.Name)

	fetch.err = errors.New("boom")
	assert.Error(t, store.Reload(context.Background()))
	current, _ = store.Get()
	assert.Equal(t, "Renamed", current.Name)
}

func TestSettingsStoreLoadFailure(t *testing.T) {
	store := NewSettingsStore(&fakeSettings{err: errors.New("unreachable")}, nil)
	_, err := store.Load(context.Background())
	assert.Error(t, err)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestConsoleBufferKeepsTail(t *testing.T) {
	c := NewConsoleBuffer(2)
	c.Append("a")
	c.Append("b")
	c.Append("c")
	assert.Equal(t, []string{"b", "c"}, c.Lines())
	c.Clear()
	assert.Empty(t, c.Lines())
}
