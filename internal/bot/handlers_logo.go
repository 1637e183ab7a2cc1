package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/storage"
)

const (
	logoCommand      = "/logo"
	maxDownloadBytes = storage.MaxObjectSize
	// Telegram re-encodes photos as JPEG.
	photoContentType = "image/jpeg"
)

// downloadFile fetches a Telegram file into memory.
func (b *Bot) downloadFile(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, string, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.FileDownloadLink(file), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, "", fmt.Errorf("file exceeds size limit of %d bytes", maxDownloadBytes)
	}
	return data, path.Base(file.FilePath), nil
}

// handleLogoPhotoCore uploads a photo captioned "/logo <brand>" as the
// brand's logo.
func (b *Bot) handleLogoPhotoCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || len(msg.Photo) == 0 {
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !strings.HasPrefix(strings.TrimSpace(msg.Caption), logoCommand) {
		sendHTML(ctx, tg, chatID, "To set a brand logo, send the photo with the caption <code>/logo &lt;brand&gt;</code>.")
		return
	}
	ref := extractCommandArgs(strings.TrimSpace(msg.Caption), logoCommand)
	if ref == "" {
		sendHTML(ctx, tg, chatID, "Usage: send a photo with the caption <code>/logo &lt;brand&gt;</code>")
		return
	}

	brand, err := b.resolveBrandRef(ctx, userID, ref)
	if err != nil {
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	largest := msg.Photo[len(msg.Photo)-1]
	data, filename, err := b.downloadFile(ctx, tg, largest.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Msg("Failed to download logo photo")
		sendHTML(ctx, tg, chatID, "❌ Failed to download the photo. Please try again.")
		return
	}

	updated, err := b.catalog.UploadLogo(ctx, b.identity(ctx, userID), brand.ID, filename, photoContentType, bytes.NewReader(data))
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", logger.HashUserID(userID)).Str("brand_id", brand.ID).Msg("Failed to upload logo")
		sendHTML(ctx, tg, chatID, brandErrorText(err))
		return
	}

	b.replaceListed(userID, brand.ID, updated.ID)

	text := fmt.Sprintf("🖼 Logo updated for <b>%s</b>.", escapeHTML(updated.Name))
	if updated.ID != brand.ID {
		text += "\n<i>The shared brand was copied into your own brands.</i>"
	}
	sendHTML(ctx, tg, chatID, text)
}
