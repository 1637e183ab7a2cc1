package bot

import (
	"context"
	"errors"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
)

const nilMessageReturnsEarly = "nil message returns early"

func TestExtractCommandArgs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		command string
		want    string
	}{
		{"no args", "/region", "/region", ""},
		{"plain args", "/region taiwan", "/region", "taiwan"},
		{"extra spaces", "/region    hk  ", "/region", "hk"},
		{"bot suffix without args", "/region@SushiBot", "/region", ""},
		{"bot suffix with args", "/region@SushiBot mainland", "/region", "mainland"},
		{"multi word", "/newbrand My Sushi Place", "/newbrand", "My Sushi Place"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractCommandArgs(tt.text, tt.command))
		})
	}
}

func TestEscapeHTML(t *testing.T) {
	require.Equal(t, "Fish &amp; Chips &lt;b&gt;", escapeHTML("Fish & Chips <b>"))
	require.Equal(t, "plain", escapeHTML("plain"))
}

func TestFormatGreeting(t *testing.T) {
	require.Empty(t, formatGreeting(""))
	require.Equal(t, ", Aiko", formatGreeting("Aiko"))
	require.Equal(t, ", &lt;x&gt;", formatGreeting("<x>"))
}

func TestHandleStartCore(t *testing.T) {
	b := setupTestBot(t)
	ctx := context.Background()

	t.Run(nilMessageReturnsEarly, func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleStartCore(ctx, mockBot, &tgmodels.Update{})
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("greets with name and default region", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.handleStartCore(ctx, mockBot, commandUpdate("/start"))

		require.Equal(t, 1, mockBot.SentMessageCount())
		msg := mockBot.LastSentMessage()
		require.Contains(t, msg.Text, "Welcome, Test!")
		require.Contains(t, msg.Text, "Hong Kong")
		require.Contains(t, msg.Text, "HK$")
		require.Equal(t, tgmodels.ParseModeHTML, msg.ParseMode)
	})
}

func TestHandleHelpCore(t *testing.T) {
	b := setupTestBot(t)
	mockBot := mocks.NewMockBot()

	b.handleHelpCore(context.Background(), mockBot, commandUpdate("/help"))

	msg := mockBot.LastSentMessage()
	require.NotNil(t, msg)
	for _, cmd := range []string{"/brands", "/history", "/stats", "/setprice", "/addplate", "/deletebrand", "/logo"} {
		require.Contains(t, msg.Text, cmd)
	}
}

func TestHandleRegionCore(t *testing.T) {
	ctx := context.Background()

	t.Run("shows current region", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleRegionCore(ctx, mockBot, commandUpdate("/region"))

		msg := mockBot.LastSentMessage()
		require.Contains(t, msg.Text, "Your region is <b>Hong Kong</b>")
		require.Contains(t, msg.Text, "taiwan")
		require.Contains(t, msg.Text, "mainland")
	})

	t.Run("unknown region", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleRegionCore(ctx, mockBot, commandUpdate("/region <mars>"))

		msg := mockBot.LastSentMessage()
		require.Contains(t, msg.Text, "Unknown region")
		require.Contains(t, msg.Text, "&lt;mars&gt;")
	})

	t.Run("changes region", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		update := commandUpdate("/region Taiwan")
		require.True(t, b.allowUpdate(ctx, mockBot, update))

		b.handleRegionCore(ctx, mockBot, update)

		msg := mockBot.LastSentMessage()
		require.Contains(t, msg.Text, "Region set to <b>Taiwan</b>")
		require.Contains(t, msg.Text, "NT$")
		require.Equal(t, models.RegionTaiwan, b.userRegion(ctx, testUserID))
	})

	t.Run("unregistered user gets an error", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleRegionCore(ctx, mockBot, commandUpdate("/region hk"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Failed to update region")
	})
}

func TestAllowUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("open bot registers user with default region", func(t *testing.T) {
		b := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		require.True(t, b.allowUpdate(ctx, mockBot, commandUpdate("/start")))

		user, err := b.users.GetUserByID(ctx, testUserID)
		require.NoError(t, err)
		require.Equal(t, "testuser", user.Username)
		require.Equal(t, models.RegionHK, user.Region)
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("update without sender is dropped", func(t *testing.T) {
		b := setupTestBot(t)
		require.False(t, b.allowUpdate(ctx, mocks.NewMockBot(), &tgmodels.Update{}))
	})

	t.Run("non-whitelisted user is blocked", func(t *testing.T) {
		b := setupTestBot(t)
		b.cfg.WhitelistedUserIDs = []int64{42}
		mockBot := mocks.NewMockBot()

		require.False(t, b.allowUpdate(ctx, mockBot, commandUpdate("/start")))
		require.Contains(t, mockBot.LastSentMessage().Text, "not authorized")

		_, err := b.users.GetUserByID(ctx, testUserID)
		require.Error(t, err)
	})

	t.Run("whitelisted username is allowed", func(t *testing.T) {
		b := setupTestBot(t)
		b.cfg.WhitelistedUsernames = []string{"TestUser"}

		require.True(t, b.allowUpdate(ctx, mocks.NewMockBot(), commandUpdate("/start")))
	})

	t.Run("admin bypasses whitelist", func(t *testing.T) {
		b := setupTestBot(t)
		b.cfg.WhitelistedUserIDs = []int64{42}

		require.True(t, b.allowUpdate(ctx, mocks.NewMockBot(), commandUpdateFrom(testAdminID, "/token")))
	})

	t.Run("callback sender is registered", func(t *testing.T) {
		b := setupTestBot(t)
		update := mocks.CallbackQueryUpdate(testChatID, 555, 1, "noop")

		require.True(t, b.allowUpdate(ctx, mocks.NewMockBot(), update))
		_, err := b.users.GetUserByID(ctx, 555)
		require.NoError(t, err)
	})

	t.Run("blocked callback sends nothing", func(t *testing.T) {
		b := setupTestBot(t)
		b.cfg.WhitelistedUserIDs = []int64{42}
		mockBot := mocks.NewMockBot()

		require.False(t, b.allowUpdate(ctx, mockBot, mocks.CallbackQueryUpdate(testChatID, 555, 1, "noop")))
		require.Equal(t, 0, mockBot.SentMessageCount())
	})
}

func TestIdentity(t *testing.T) {
	b := setupTestBot(t)
	ctx := context.Background()

	require.True(t, b.identity(ctx, testAdminID).IsAdmin)
	require.False(t, b.identity(ctx, testUserID).IsAdmin)

	users := b.users.(*memUsers)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 777}))
	users.users[777].IsAdmin = true
	require.True(t, b.identity(ctx, 777).IsAdmin)
}

func TestDefaultHandlerCore(t *testing.T) {
	b := setupTestBot(t)
	ctx := context.Background()

	t.Run(nilMessageReturnsEarly, func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.defaultHandlerCore(ctx, mockBot, &tgmodels.Update{})
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("unknown text gets a hint", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.defaultHandlerCore(ctx, mockBot, commandUpdate("hello"))
		require.Contains(t, mockBot.LastSentMessage().Text, "I didn't understand that")
	})

	t.Run("send failure is logged only", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		mockBot.SendMessageError = errors.New("network down")
		b.defaultHandlerCore(ctx, mockBot, commandUpdate("hello"))
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("uncaptioned photo gets logo hint", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.defaultHandlerCore(ctx, mockBot, mocks.PhotoUpdate(testChatID, testUserID, "photo-1"))
		require.Contains(t, mockBot.LastSentMessage().Text, "/logo")
	})
}
