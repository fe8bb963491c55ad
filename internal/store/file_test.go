package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/domwatch/dominance-bot/internal/model"
	"github.com/domwatch/dominance-bot/internal/store"
)

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	dir := t.TempDir()
	return store.NewFileStore(
		filepath.Join(dir, "portfolios.json"),
		filepath.Join(dir, "bot-config.json"),
	)
}

func TestFileStore_MissingFilesYieldEmptyDocuments(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	book, err := st.LoadBook(ctx)
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if len(book.Users) != 0 {
		t.Errorf("users = %d, want 0", len(book.Users))
	}

	settings, err := st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.CheckIntervalHours != nil {
		t.Errorf("interval override = %v, want nil", *settings.CheckIntervalHours)
	}
}

func TestFileStore_BookRoundTrip(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	book := model.NewBook()
	user, _ := book.GetOrCreateUser(42, "tester")
	user.Wallets["main"] = &model.Wallet{
		Name: "main",
		Coins: map[string]*model.CoinPosition{
			"bitcoin": {
				Symbol:        "BTC",
				Name:          "Bitcoin",
				Amount:        decimal.RequireFromString("0.5"),
				TotalInvested: decimal.RequireFromString("25000"),
				AvgBuyPrice:   decimal.RequireFromString("50000"),
			},
		},
	}

	if err := st.SaveBook(ctx, book); err != nil {
		t.Fatalf("SaveBook: %v", err)
	}

	loaded, err := st.LoadBook(ctx)
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	pos := loaded.Users[42].Wallets["main"].Coins["bitcoin"]
	if pos == nil {
		t.Fatal("position lost in round trip")
	}
	if !pos.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("amount = %s, want 0.5", pos.Amount)
	}
	if !pos.AvgBuyPrice.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("avg price = %s, want 50000", pos.AvgBuyPrice)
	}
}

func TestFileStore_MalformedBookFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "portfolios.json")
	if err := os.WriteFile(bookPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st := store.NewFileStore(bookPath, filepath.Join(dir, "bot-config.json"))

	book, err := st.LoadBook(context.Background())
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if len(book.Users) != 0 {
		t.Errorf("users = %d, want 0 after malformed file", len(book.Users))
	}
}

func TestFileStore_SettingsRoundTripOmitsUnset(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()

	hours := 6
	if err := st.SaveSettings(ctx, &model.Settings{CheckIntervalHours: &hours}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	loaded, err := st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.CheckIntervalHours == nil || *loaded.CheckIntervalHours != 6 {
		t.Errorf("interval = %v, want 6", loaded.CheckIntervalHours)
	}
	if loaded.MinThreshold != nil {
		t.Errorf("unset threshold came back as %v", *loaded.MinThreshold)
	}
}
