package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"newsdeck/internal/cloud"
	"newsdeck/internal/cloud/mock"
	"newsdeck/internal/model"
	"newsdeck/internal/service"
	"newsdeck/internal/store"
)

const testBlobName = "newsdeck-settings.json"

func setupSync(t *testing.T, ctrl *gomock.Controller, maxAge time.Duration) (service.SyncService, service.CatalogService, service.OverlayService, *mock.MockBlobStore) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	catalog := service.NewCatalogService(model.DefaultSnapshot())
	overlay, err := service.NewOverlayService(context.Background(), st)
	require.NoError(t, err)

	blobs := mock.NewMockBlobStore(ctrl)
	sync := service.NewSyncService(catalog, overlay, blobs, st, testBlobName, maxAge)
	return sync, catalog, overlay, blobs
}

func TestSync_SignInReplacesLocalWholesale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, catalog, _, blobs := setupSync(t, ctrl, 24*time.Hour)

	_, err := catalog.AddFeed("https://local.example.com/rss", "Local", nil)
	require.NoError(t, err)

	remote := model.Snapshot{
		Feeds:       []model.Feed{{ID: "r1", URL: "https://remote.example.com/rss", Title: "Remote"}},
		Theme:       "dark",
		ArticleView: "list",
	}
	data, err := json.Marshal(remote)
	require.NoError(t, err)

	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Read(gomock.Any(), "blob-1").Return(data, nil)

	require.NoError(t, sync.SignIn(context.Background(), "user-1"))
	require.Equal(t, "user-1", sync.Identity())
	require.False(t, sync.LastSync().IsZero())

	snapshot := catalog.Snapshot()
	require.Equal(t, remote.Feeds, snapshot.Feeds)
	require.Equal(t, "dark", snapshot.Theme)
	// The local feed is gone: replace, not merge.
	for _, feed := range snapshot.Feeds {
		require.NotEqual(t, "https://local.example.com/rss", feed.URL)
	}
}

func TestSync_FirstSignInUploadsLocalState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, catalog, _, blobs := setupSync(t, ctrl, 24*time.Hour)

	_, err := catalog.AddFeed("https://local.example.com/rss", "Local", nil)
	require.NoError(t, err)

	var uploaded []byte
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("", cloud.ErrNotFound)
	blobs.EXPECT().Create(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, data []byte) error {
			uploaded = data
			return nil
		},
	)

	require.NoError(t, sync.SignIn(context.Background(), "user-1"))

	// Silent initial push: no visible status transition.
	require.Equal(t, service.SyncIdle, sync.Status())
	require.False(t, sync.LastSync().IsZero())

	var pushed model.Snapshot
	require.NoError(t, json.Unmarshal(uploaded, &pushed))
	require.Len(t, pushed.Feeds, 1)
	require.Equal(t, "https://local.example.com/rss", pushed.Feeds[0].URL)

	// Local state was never overwritten by a download.
	require.Len(t, catalog.Feeds(), 1)
	require.Equal(t, "Local", catalog.Feeds()[0].Title)
}

func TestSync_ManualSyncSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, 24*time.Hour)

	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).Return(nil)

	require.NoError(t, sync.SyncNow(context.Background()))
	require.Equal(t, service.SyncSuccess, sync.Status())
	require.False(t, sync.LastSync().IsZero())
}

func TestSync_ManualSyncErrorKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, 24*time.Hour)

	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).Return(errors.New("quota exceeded"))

	err := sync.SyncNow(context.Background())
	require.Error(t, err)
	require.Equal(t, service.SyncError, sync.Status())
	require.True(t, sync.LastSync().IsZero())
}

func TestSync_ManualSyncWhileInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, 24*time.Hour)

	entered := make(chan struct{})
	release := make(chan struct{})
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ []byte) error {
			close(entered)
			<-release
			return nil
		},
	)

	done := make(chan error, 1)
	go func() {
		done <- sync.SyncNow(context.Background())
	}()
	<-entered

	require.ErrorIs(t, sync.SyncNow(context.Background()), service.ErrSyncInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSync_PeriodicSkipsGuestAndFreshSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, time.Hour)

	// Guest: nothing to push.
	require.NoError(t, sync.CheckAndSync(context.Background()))

	remote := model.DefaultSnapshot()
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Read(gomock.Any(), "blob-1").Return(data, nil)
	require.NoError(t, sync.SignIn(context.Background(), "user-1"))

	// Just synced: below the age threshold, no upload.
	require.NoError(t, sync.CheckAndSync(context.Background()))
}

func TestSync_PeriodicUploadsWhenStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, time.Millisecond)

	remote := model.DefaultSnapshot()
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Read(gomock.Any(), "blob-1").Return(data, nil)
	require.NoError(t, sync.SignIn(context.Background(), "user-1"))

	time.Sleep(5 * time.Millisecond)

	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).Return(nil)
	require.NoError(t, sync.CheckAndSync(context.Background()))
}

func TestSync_PeriodicFailureKeepsTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, _, _, blobs := setupSync(t, ctrl, time.Millisecond)

	remote := model.DefaultSnapshot()
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Read(gomock.Any(), "blob-1").Return(data, nil)
	require.NoError(t, sync.SignIn(context.Background(), "user-1"))
	lastGood := sync.LastSync()

	time.Sleep(5 * time.Millisecond)

	blobs.EXPECT().Write(gomock.Any(), "blob-1", gomock.Any()).Return(errors.New("network down"))
	require.Error(t, sync.CheckAndSync(context.Background()))
	require.Equal(t, lastGood, sync.LastSync())
	require.Equal(t, service.SyncIdle, sync.Status())
}

func TestSync_SignOutRevertsToDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, catalog, overlay, blobs := setupSync(t, ctrl, 24*time.Hour)

	remote := model.Snapshot{
		Feeds: []model.Feed{{ID: "r1", URL: "https://remote.example.com/rss", Title: "Remote"}},
		Theme: "dark",
	}
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	blobs.EXPECT().Find(gomock.Any(), testBlobName).Return("blob-1", nil)
	blobs.EXPECT().Read(gomock.Any(), "blob-1").Return(data, nil)
	require.NoError(t, sync.SignIn(context.Background(), "user-1"))

	require.NoError(t, sync.SignOut(context.Background()))
	require.Equal(t, service.GuestIdentity, sync.Identity())
	require.Equal(t, service.GuestIdentity, overlay.Identity())
	require.True(t, sync.LastSync().IsZero())

	snapshot := catalog.Snapshot()
	require.Empty(t, snapshot.Feeds)
	require.Equal(t, model.DefaultSnapshot().Theme, snapshot.Theme)
}
