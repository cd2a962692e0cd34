package state_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/redirector/internal/adapters/state"
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newStore(t *testing.T) (*state.Store, string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	path := filepath.Join(t.TempDir(), "nested", domain.StateFileName)
	store, err := state.NewStore(path, mockLogger)
	require.NoError(t, err)
	return store, path
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)
	now := time.Unix(1_700_000_000, 0)

	st := domain.NewState()
	st.RecordSuccess("https://a.test/v", "https://cdn.test/v.m3u8", domain.TierModern, now, 15*time.Second)
	st.RecordFailure("https://b.test/v", "b.test", domain.TierProxy, now, 15*time.Minute, 5*time.Minute)
	st.SetActivePlayer(domain.PlayerAVPro)

	require.NoError(t, store.Save(st))
	assert.FileExists(t, path)

	got := store.Load()
	require.Len(t, got.History, 1)
	assert.Equal(t, st.History[0], got.History[0])
	assert.Equal(t, st.DomainBlacklist, got.DomainBlacklist)
	assert.Equal(t, st.FailedURLs, got.FailedURLs)
	assert.Equal(t, domain.PlayerAVPro, got.ActivePlayer)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	got := store.Load()
	assert.Empty(t, got.History)
	assert.NotNil(t, got.FailedURLs)
}

func TestStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: "{ invalid json"},
		{name: "wrong field type", content: `{"force_fallback": "yes"}`},
		{name: "short history entry", content: `{"history": [["only-url"]]}`},
		{name: "not an object", content: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, path := newStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), domain.PrivateFilePerm))

			got := store.Load()
			require.NotNil(t, got)
			assert.Empty(t, got.History)
			assert.False(t, got.ForceFallback)
		})
	}
}

func TestStore_ToleratesUnknownFields(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	content := `{"history": [], "force_fallback": true, "fallback_until": 1700000600, "patcher_pid": 4242}`
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))

	got := store.Load()
	assert.True(t, got.ForceFallback)

	got.ConsecutiveErrors = 1
	require.NoError(t, store.Save(got))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"patcher_pid": 4242`)
	assert.Contains(t, string(data), `"consecutive_errors": 1`)
}

func TestStore_SaveUnchangedSkipsWrite(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)
	st := domain.NewState()
	require.NoError(t, store.Save(st))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, store.Save(store.Load()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.WithinDuration(t, old, info.ModTime(), time.Second, "identical document is not rewritten")

	st.ConsecutiveErrors = 2
	require.NoError(t, store.Save(st))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(old))
}

func TestStore_SaveRecreatesDeletedFile(t *testing.T) {
	t.Parallel()

	store, path := newStore(t)
	st := domain.NewState()
	require.NoError(t, store.Save(st))
	require.NoError(t, os.Remove(path))

	require.NoError(t, store.Save(st))
	assert.FileExists(t, path)
}
