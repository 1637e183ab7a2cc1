package bot

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/admin"
	"gitlab.com/yelinaung/sushi-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/tally"
)

var tokenRegex = regexp.MustCompile(`<code>([^<]+)</code>`)

func TestHandleTokenCore(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is refused", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleTokenCore(ctx, mockBot, commandUpdate("/token"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Only admins")
	})

	t.Run("admin gets a verifiable token", func(t *testing.T) {
		b := setupTestBot(t)
		// Tokens are issued at the bot clock, so it has to be current here.
		b.now = time.Now
		mockBot := mocks.NewMockBot()

		b.handleTokenCore(ctx, mockBot, commandUpdateFrom(testAdminID, "/token"))

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "Dashboard token")
		match := tokenRegex.FindStringSubmatch(text)
		require.Len(t, match, 2)

		id, err := admin.ParseToken(testSecret, match[1])
		require.NoError(t, err)
		require.Equal(t, testAdminID, id.UserID)
		require.True(t, id.IsAdmin)
	})

	t.Run("dashboard disabled", func(t *testing.T) {
		b := setupTestBot(t)
		b.cfg.AdminJWTSecret = ""
		mockBot := mocks.NewMockBot()

		b.handleTokenCore(ctx, mockBot, commandUpdateFrom(testAdminID, "/token"))

		require.Contains(t, mockBot.LastSentMessage().Text, "not enabled")
	})
}

func TestSweepSessions(t *testing.T) {
	b := setupTestBot(t)
	b.sessions = tally.NewStore(time.Nanosecond)
	b.sessions.Start(testChatID, tally.New(sushiroBrand(t), models.RegionHK))
	require.Equal(t, 1, b.sessions.Len())

	time.Sleep(time.Millisecond)

	require.Equal(t, 1, b.sweepSessions())
	require.Equal(t, 0, b.sessions.Len())
	require.Equal(t, 0, b.sweepSessions())
}

func TestStartSessionSweeper_StopsOnCancel(t *testing.T) {
	b := setupTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		b.startSessionSweeper(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
