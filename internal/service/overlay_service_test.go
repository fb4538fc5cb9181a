package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"newsdeck/internal/service"
	"newsdeck/internal/store"
)

func setupOverlay(t *testing.T) (service.OverlayService, store.Store) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	overlay, err := service.NewOverlayService(context.Background(), st)
	require.NoError(t, err)
	return overlay, st
}

func TestOverlay_MarkReadAndBack(t *testing.T) {
	overlay, _ := setupOverlay(t)

	require.False(t, overlay.IsRead("abc"))
	overlay.MarkRead("abc")
	require.True(t, overlay.IsRead("abc"))

	// Idempotent.
	overlay.MarkRead("abc")
	require.True(t, overlay.IsRead("abc"))

	overlay.MarkUnread("abc")
	require.False(t, overlay.IsRead("abc"))
}

func TestOverlay_ToggleBookmark(t *testing.T) {
	overlay, _ := setupOverlay(t)

	overlay.ToggleBookmark("abc")
	require.True(t, overlay.IsBookmarked("abc"))
	overlay.ToggleBookmark("abc")
	require.False(t, overlay.IsBookmarked("abc"))
}

func TestOverlay_Tags(t *testing.T) {
	overlay, _ := setupOverlay(t)

	require.Nil(t, overlay.Tags("abc"))
	overlay.SetTags("abc", []string{"go", "infra"})
	require.Equal(t, []string{"go", "infra"}, overlay.Tags("abc"))

	overlay.SetTags("abc", nil)
	require.Nil(t, overlay.Tags("abc"))
}

func TestOverlay_IdentityIsolation(t *testing.T) {
	overlay, _ := setupOverlay(t)
	ctx := context.Background()

	require.Equal(t, service.GuestIdentity, overlay.Identity())
	overlay.MarkRead("abc")

	require.NoError(t, overlay.SwitchIdentity(ctx, "user-1"))
	require.False(t, overlay.IsRead("abc"))

	overlay.MarkRead("xyz")

	// Guest state is intact after switching back.
	require.NoError(t, overlay.SwitchIdentity(ctx, service.GuestIdentity))
	require.True(t, overlay.IsRead("abc"))
	require.False(t, overlay.IsRead("xyz"))
}

func TestOverlay_PersistsAcrossReload(t *testing.T) {
	overlay, st := setupOverlay(t)
	ctx := context.Background()

	overlay.MarkRead("abc")
	overlay.ToggleBookmark("abc")

	reloaded, err := service.NewOverlayService(ctx, st)
	require.NoError(t, err)
	require.True(t, reloaded.IsRead("abc"))
	require.True(t, reloaded.IsBookmarked("abc"))
}
