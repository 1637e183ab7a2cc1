package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/config"
	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/repository"
)

const (
	testChatID  = int64(12345)
	testUserID  = int64(100001)
	testAdminID = int64(900001)
	testSecret  = "test-secret"
)

// testNow is a Wednesday.
var testNow = time.Date(2026, 3, 18, 19, 30, 0, 0, time.UTC)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*models.User)}
}

func (m *memUsers) UpsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[user.ID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		return nil
	}
	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUsers) UpdateRegion(_ context.Context, id int64, region models.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Region = region
	return nil
}

// setupTestBot creates a Bot backed by in-memory stores with the shared
// brands seeded.
func setupTestBot(t *testing.T) *Bot {
	t.Helper()
	return setupTestBotWithObjects(t, nil)
}

func setupTestBotWithObjects(t *testing.T, objects catalog.ObjectStore) *Bot {
	t.Helper()

	cfg := &config.Config{
		TelegramBotToken: "test-token",
		AdminUserIDs:     []int64{testAdminID},
		AdminJWTSecret:   testSecret,
		DefaultRegion:    models.RegionHK,
		ReportCurrency:   models.CurrencyHKD,
		ExchangeRates:    exchange.DefaultRates(),
		SessionTTL:       time.Hour,
	}

	brands := catalog.NewService(catalog.NewMemoryStore(), objects)
	_, err := brands.Seed(context.Background())
	require.NoError(t, err)

	meals := history.NewService(history.NewMemoryStore(), exchange.NewStaticService(cfg.ExchangeRates, testNow))

	b := newBot(cfg, newMemUsers(), brands, meals)
	b.now = func() time.Time { return testNow }
	var seq int
	var seqMu sync.Mutex
	b.newID = func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("meal-%d", seq)
	}
	return b
}

// commandUpdate builds a text message from testUserID.
func commandUpdate(text string) *tgmodels.Update {
	return commandUpdateFrom(testUserID, text)
}

func commandUpdateFrom(userID int64, text string) *tgmodels.Update {
	return &tgmodels.Update{
		Message: &tgmodels.Message{
			ID:   1,
			Chat: tgmodels.Chat{ID: testChatID, Type: "private"},
			From: &tgmodels.User{ID: userID, FirstName: "Test", Username: "testuser"},
			Text: text,
		},
	}
}
