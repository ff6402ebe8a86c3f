package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

func testMeta() types.DownloadMeta {
	return types.DownloadMeta{
		URL:          "http://example.com/a.bin",
		Dest:         "/downloads/a.bin",
		Temp:         "/downloads/a.part",
		Total:        1024,
		TotalKnown:   true,
		AcceptRanges: true,
	}
}

func TestRegistryInsertAndLookup(t *testing.T) {
	reg := NewRegistry()
	flag := reg.Insert("dl-1", testMeta())
	require.NotNil(t, flag)
	assert.False(t, flag.Load())

	meta, ok := reg.Meta("dl-1")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/a.bin", meta.URL)

	got, ok := reg.CancelFlag("dl-1")
	require.True(t, ok)
	assert.Same(t, flag, got)

	_, ok = reg.Meta("dl-2")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryCancelVisibility(t *testing.T) {
	reg := NewRegistry()
	flag := reg.Insert("dl-1", testMeta())

	got, ok := reg.CancelFlag("dl-1")
	require.True(t, ok)
	got.Store(true)
	assert.True(t, flag.Load(), "cancel set through one handle must be seen through the other")
}

func TestRegistryResetCancel(t *testing.T) {
	reg := NewRegistry()
	old := reg.Insert("dl-1", testMeta())
	old.Store(true)

	fresh := reg.ResetCancel("dl-1")
	assert.False(t, fresh.Load())

	got, ok := reg.CancelFlag("dl-1")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	// Metadata survives the flag swap.
	_, ok = reg.Meta("dl-1")
	assert.True(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("dl-1", testMeta())
	reg.Remove("dl-1")

	_, ok := reg.Meta("dl-1")
	assert.False(t, ok)
	_, ok = reg.CancelFlag("dl-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	// Removing twice is fine.
	reg.Remove("dl-1")
}

func TestRegistryRemoveMeta(t *testing.T) {
	reg := NewRegistry()
	reg.Insert("dl-1", testMeta())

	meta, ok := reg.RemoveMeta("dl-1")
	require.True(t, ok)
	assert.Equal(t, "/downloads/a.bin", meta.Dest)

	_, ok = reg.RemoveMeta("dl-1")
	assert.False(t, ok)

	// The cancel flag entry is independent.
	_, ok = reg.CancelFlag("dl-1")
	assert.True(t, ok)
	reg.RemoveCancel("dl-1")
	_, ok = reg.CancelFlag("dl-1")
	assert.False(t, ok)
}
