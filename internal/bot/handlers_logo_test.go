package bot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/bot/mocks"
)

const fakeCDN = "https://cdn.test/"

// fakeObjects is an in-memory catalog.ObjectStore.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return fakeCDN + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	delete(f.objects, strings.TrimPrefix(url, fakeCDN))
	return nil
}

func (f *fakeObjects) Owns(url string) bool {
	return strings.HasPrefix(url, fakeCDN)
}

// logoUpdate builds a photo message with caption.
func logoUpdate(caption string) *tgmodels.Update {
	return mocks.NewUpdateBuilder().
		WithMessage(testChatID, testUserID, "").
		WithPhoto("logo-photo").
		WithCaption(caption).
		Build()
}

// photoServer serves body for any path.
func photoServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleLogoPhotoCore(t *testing.T) {
	ctx := context.Background()
	photo := []byte("\xff\xd8\xff fake jpeg")

	t.Run("shared brand logo forks the brand", func(t *testing.T) {
		objects := newFakeObjects()
		b := setupTestBotWithObjects(t, objects)
		srv := photoServer(t, http.StatusOK, photo)
		mockBot := mocks.NewMockBot()
		mockBot.FileToReturn = &tgmodels.File{FileID: "logo-photo", FilePath: "photos/file_7.jpg"}
		mockBot.FileDownloadLinkToReturn = srv.URL + "/photos/file_7.jpg"

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo sushiro"))

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "Logo updated for <b>Sushiro</b>")
		require.Contains(t, text, "copied into your own brands")

		fork := onlyOwned(t, b)
		require.True(t, strings.HasPrefix(fork.LogoURL, fakeCDN))
		require.True(t, strings.HasSuffix(fork.LogoURL, ".jpg"))
		stored := objects.objects[strings.TrimPrefix(fork.LogoURL, fakeCDN)]
		require.Equal(t, photo, stored)

		shared, err := b.catalog.Get(ctx, userIdentity, "sushiro")
		require.NoError(t, err)
		require.Empty(t, shared.LogoURL)
	})

	t.Run("own brand logo replaces the old one", func(t *testing.T) {
		objects := newFakeObjects()
		b := setupTestBotWithObjects(t, objects)
		own := ownBrand(t, b, "Corner Sushi")
		srv := photoServer(t, http.StatusOK, photo)
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo "+own.ID))
		first := onlyOwned(t, b).LogoURL
		require.NotEmpty(t, first)
		require.NotContains(t, mockBot.LastSentMessage().Text, "copied")

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo "+own.ID))
		second := onlyOwned(t, b).LogoURL
		require.Equal(t, own.ID, onlyOwned(t, b).ID)
		if second != first {
			require.Contains(t, objects.deleted, first)
		}
	})

	t.Run("logo by position then edit reuses the copy", func(t *testing.T) {
		b := setupTestBotWithObjects(t, newFakeObjects())
		srv := photoServer(t, http.StatusOK, photo)
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL
		b.handleBrandsCore(ctx, mockBot, commandUpdate("/brands"))

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo 1"))
		require.Contains(t, mockBot.LastSentMessage().Text, "copied into your own brands")
		fork := onlyOwned(t, b)

		b.handleSetPriceCore(ctx, mockBot, commandUpdate("/setprice 1 p 1 15"))

		got := onlyOwned(t, b)
		require.Equal(t, fork.ID, got.ID)
		require.Equal(t, fork.LogoURL, got.LogoURL)
		require.True(t, got.Plates[0].BasePrice.Equal(decimal.NewFromInt(15)))
	})

	t.Run("caption without command", func(t *testing.T) {
		b := setupTestBotWithObjects(t, newFakeObjects())
		mockBot := mocks.NewMockBot()

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("my lunch"))

		require.Contains(t, mockBot.LastSentMessage().Text, "To set a brand logo")
	})

	t.Run("command without brand", func(t *testing.T) {
		b := setupTestBotWithObjects(t, newFakeObjects())
		mockBot := mocks.NewMockBot()

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	})

	t.Run("unknown brand", func(t *testing.T) {
		b := setupTestBotWithObjects(t, newFakeObjects())
		mockBot := mocks.NewMockBot()

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo nope"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Brand not found")
	})

	t.Run("uploads disabled", func(t *testing.T) {
		b := setupTestBot(t)
		srv := photoServer(t, http.StatusOK, photo)
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo sushiro"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Logo uploads are not enabled")
	})

	t.Run("download failure", func(t *testing.T) {
		b := setupTestBotWithObjects(t, newFakeObjects())
		srv := photoServer(t, http.StatusNotFound, nil)
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		b.handleLogoPhotoCore(ctx, mockBot, logoUpdate("/logo sushiro"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Failed to download the photo")
		owned, err := b.catalog.Owned(ctx, userIdentity)
		require.NoError(t, err)
		require.Empty(t, owned)
	})
}

func TestDownloadFile(t *testing.T) {
	ctx := context.Background()
	b := setupTestBot(t)

	t.Run("get file error", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		mockBot.GetFileError = errors.New("telegram down")

		_, _, err := b.downloadFile(ctx, mockBot, "f")
		require.ErrorContains(t, err, "failed to get file info")
	})

	t.Run("bad status", func(t *testing.T) {
		srv := photoServer(t, http.StatusInternalServerError, nil)
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		_, _, err := b.downloadFile(ctx, mockBot, "f")
		require.ErrorContains(t, err, "download failed with status 500")
	})

	t.Run("too large", func(t *testing.T) {
		srv := photoServer(t, http.StatusOK, bytes.Repeat([]byte{'x'}, maxDownloadBytes+1))
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		_, _, err := b.downloadFile(ctx, mockBot, "f")
		require.ErrorContains(t, err, "exceeds size limit")
	})

	t.Run("ok", func(t *testing.T) {
		srv := photoServer(t, http.StatusOK, []byte("img"))
		mockBot := mocks.NewMockBot()
		mockBot.FileDownloadLinkToReturn = srv.URL

		data, name, err := b.downloadFile(ctx, mockBot, "f")
		require.NoError(t, err)
		require.Equal(t, []byte("img"), data)
		require.Equal(t, "test.jpg", name)
	})
}
