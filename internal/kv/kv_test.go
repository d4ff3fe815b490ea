package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, max int) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{MaxValueBytes: max})
	require.NoError(t, err)
	return s
}

func TestGetRaw_MissingKeyIsNotAnError(t *testing.T) {
	s := openTemp(t, 0)
	b, ok, err := s.GetRaw("injectionsData")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestPutRaw_RoundTrip(t *testing.T) {
	s := openTemp(t, 0)
	require.NoError(t, s.PutRaw("coloringData", []byte(`[{"a":1}]`)))
	b, ok, err := s.GetRaw("coloringData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"a":1}]`, string(b))
}

func TestPutRaw_QuotaLeavesPriorValue(t *testing.T) {
	s := openTemp(t, 8)
	require.NoError(t, s.PutString("employeeName", "dana"))
	err := s.PutString("employeeName", "much too long for the quota")
	assert.True(t, errors.Is(err, ErrQuotaExceeded), "got %v", err)
	v, err := s.GetString("employeeName")
	require.NoError(t, err)
	assert.Equal(t, "dana", v)
}

func TestPutRaw_NoTempFilesLeft(t *testing.T) {
	s := openTemp(t, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.PutString("fillingData", "[]"))
	}
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInvalidKey(t *testing.T) {
	s := openTemp(t, 0)
	err := s.PutString("../escape", "x")
	assert.True(t, errors.Is(err, ErrInvalidKey))
	_, _, err = s.GetRaw("a/b")
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestKeysSortedAndDelete(t *testing.T) {
	s := openTemp(t, 0)
	require.NoError(t, s.PutString("injectionsData", "[]"))
	require.NoError(t, s.PutString("assembliesData", "[]"))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".fillingData.123.tmp"), []byte("x"), 0o644))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"assembliesData", "injectionsData"}, keys)

	require.NoError(t, s.Delete("assembliesData"))
	require.NoError(t, s.Delete("assembliesData"))
	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"injectionsData"}, keys)
}

func TestWatch_ReportsPutAndDelete(t *testing.T) {
	s := openTemp(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, s.PutString("injectionsData", "[]"))
	waitFor(t, changes, Change{Key: "injectionsData", Op: OpPut})

	require.NoError(t, s.Delete("injectionsData"))
	waitFor(t, changes, Change{Key: "injectionsData", Op: OpDelete})
}

func waitFor(t *testing.T, changes <-chan Change, want Change) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got, ok := <-changes:
			if !ok {
				t.Fatalf("watch closed before %+v", want)
			}
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
}
