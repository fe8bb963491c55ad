package portfolio_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/domwatch/dominance-bot/internal/market"
	"github.com/domwatch/dominance-bot/internal/portfolio"
	"github.com/domwatch/dominance-bot/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func dp(f float64) *decimal.Decimal {
	v := decimal.NewFromFloat(f)
	return &v
}

// fakeCatalog resolves any query to a coin named after the query, so tests
// can use arbitrary symbols without touching the network.
type fakeCatalog struct {
	missing map[string]bool
}

func (f *fakeCatalog) Search(_ context.Context, query string) (*market.Coin, bool) {
	if f.missing[query] {
		return nil, false
	}
	return &market.Coin{ID: query, Symbol: query, Name: query}, true
}

// fakeQuotes returns fixed prices; unknown ids are simply absent.
type fakeQuotes struct {
	prices map[string]decimal.Decimal
}

func (f *fakeQuotes) Prices(_ context.Context, ids []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out
}

func newTestService(t *testing.T, quotes map[string]decimal.Decimal) *portfolio.Service {
	t.Helper()
	return portfolio.NewService(
		store.NewMemoryStore(),
		&fakeCatalog{},
		&fakeQuotes{prices: quotes},
	)
}

func mustCreateWallet(t *testing.T, svc *portfolio.Service, userID int64, name string) {
	t.Helper()
	if _, err := svc.CreateWallet(context.Background(), userID, "tester", name); err != nil {
		t.Fatalf("CreateWallet(%q): %v", name, err)
	}
}

func mustAddCoin(t *testing.T, svc *portfolio.Service, userID int64, wallet, coin string, amount decimal.Decimal, price *decimal.Decimal) {
	t.Helper()
	if _, err := svc.AddCoin(context.Background(), userID, "tester", wallet, coin, amount, price); err != nil {
		t.Fatalf("AddCoin(%s %s): %v", coin, amount, err)
	}
}

func assertDecimal(t *testing.T, got decimal.Decimal, want float64, label string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %v", label, got, want)
	}
}

// --- Wallet creation ---

func TestCreateWallet_NormalizesAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, 1, "tester", "  Main  ")
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if w.Name != "main" {
		t.Errorf("wallet name = %q, want %q", w.Name, "main")
	}

	if _, err := svc.CreateWallet(ctx, 1, "tester", "MAIN"); err == nil {
		t.Fatal("expected duplicate wallet error")
	} else if !errors.Is(err, portfolio.ErrWalletExists) {
		t.Errorf("error = %v, want ErrWalletExists", err)
	}

	// Same name is fine for a different user.
	if _, err := svc.CreateWallet(ctx, 2, "other", "main"); err != nil {
		t.Errorf("CreateWallet for other user: %v", err)
	}
}

func TestCreateWallet_NameLength(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, name := range []string{"x", "", "this-name-is-way-too-long"} {
		if _, err := svc.CreateWallet(ctx, 1, "tester", name); !errors.Is(err, portfolio.ErrInvalidName) {
			t.Errorf("CreateWallet(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

// --- Buys ---

func TestAddCoin_WeightedAverage(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")

	// 1 btc @ 100, then 1 btc @ 200 -> avg 150, invested 300.
	mustAddCoin(t, svc, 1, "main", "btc", d(1), dp(100))
	pos, err := svc.AddCoin(ctx, 1, "tester", "main", "btc", d(1), dp(200))
	if err != nil {
		t.Fatalf("AddCoin: %v", err)
	}

	assertDecimal(t, pos.Amount, 2, "amount")
	assertDecimal(t, pos.AvgBuyPrice, 150, "avg buy price")
	assertDecimal(t, pos.TotalInvested, 300, "total invested")
}

func TestAddCoin_UnpricedTopUpKeepsBasis(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")

	mustAddCoin(t, svc, 1, "main", "eth", d(2), dp(1000))
	pos, err := svc.AddCoin(ctx, 1, "tester", "main", "eth", d(3), nil)
	if err != nil {
		t.Fatalf("AddCoin: %v", err)
	}

	assertDecimal(t, pos.Amount, 5, "amount")
	assertDecimal(t, pos.AvgBuyPrice, 1000, "avg buy price")
	assertDecimal(t, pos.TotalInvested, 2000, "total invested")
}

func TestAddCoin_Validation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")

	if _, err := svc.AddCoin(ctx, 1, "tester", "main", "btc", d(0), nil); !errors.Is(err, portfolio.ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.AddCoin(ctx, 1, "tester", "main", "btc", d(1), dp(-5)); !errors.Is(err, portfolio.ErrInvalidPrice) {
		t.Errorf("negative price error = %v, want ErrInvalidPrice", err)
	}
	if _, err := svc.AddCoin(ctx, 1, "tester", "nope", "btc", d(1), nil); !errors.Is(err, portfolio.ErrWalletNotFound) {
		t.Errorf("missing wallet error = %v, want ErrWalletNotFound", err)
	}
}

func TestAddCoin_UnknownCoin(t *testing.T) {
	svc := portfolio.NewService(
		store.NewMemoryStore(),
		&fakeCatalog{missing: map[string]bool{"notacoin": true}},
		&fakeQuotes{},
	)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")

	if _, err := svc.AddCoin(ctx, 1, "tester", "main", "notacoin", d(1), nil); !errors.Is(err, portfolio.ErrCoinNotFound) {
		t.Errorf("error = %v, want ErrCoinNotFound", err)
	}
}

// --- Sells ---

func TestSellCoin_ProfitMath(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")
	mustAddCoin(t, svc, 1, "main", "btc", d(2), dp(100))

	// Sell 1 @ 150: profit = 1*(150-100) = 50, percent = 50.
	sale, err := svc.SellCoin(ctx, 1, "main", "btc", d(1), d(150))
	if err != nil {
		t.Fatalf("SellCoin: %v", err)
	}
	assertDecimal(t, sale.Profit, 50, "profit")
	assertDecimal(t, sale.ProfitPercent, 50, "profit percent")
	assertDecimal(t, sale.CostBasis, 100, "cost basis")

	// Remaining position lost the sold cost basis.
	view, err := svc.WalletDetail(ctx, 1, "main")
	if err != nil {
		t.Fatalf("WalletDetail: %v", err)
	}
	assertDecimal(t, view.Coins[0].Amount, 1, "remaining amount")
	assertDecimal(t, view.Coins[0].Invested, 100, "remaining invested")
	assertDecimal(t, view.Coins[0].AvgBuyPrice, 100, "avg buy price unchanged")
}

func TestSellCoin_InsufficientHoldingsDoesNotMutate(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")
	mustAddCoin(t, svc, 1, "main", "btc", d(1), dp(100))

	if _, err := svc.SellCoin(ctx, 1, "main", "btc", d(2), d(150)); !errors.Is(err, portfolio.ErrInsufficientHoldings) {
		t.Fatalf("error = %v, want ErrInsufficientHoldings", err)
	}

	view, err := svc.WalletDetail(ctx, 1, "main")
	if err != nil {
		t.Fatalf("WalletDetail: %v", err)
	}
	assertDecimal(t, view.Coins[0].Amount, 1, "amount after rejected sell")
	assertDecimal(t, view.Coins[0].Invested, 100, "invested after rejected sell")
}

func TestSellCoin_NeverCreatesUserOrPosition(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.SellCoin(ctx, 99, "main", "btc", d(1), d(100)); !errors.Is(err, portfolio.ErrWalletNotFound) {
		t.Errorf("unknown user error = %v, want ErrWalletNotFound", err)
	}

	mustCreateWallet(t, svc, 1, "main")
	if _, err := svc.SellCoin(ctx, 1, "main", "btc", d(1), d(100)); !errors.Is(err, portfolio.ErrCoinNotFound) {
		t.Errorf("no position error = %v, want ErrCoinNotFound", err)
	}
}

func TestSellCoin_TotalProfitAccumulates(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")
	mustAddCoin(t, svc, 1, "main", "btc", d(10), dp(100))

	// +100 then -30 -> total 70.
	if _, err := svc.SellCoin(ctx, 1, "main", "btc", d(1), d(200)); err != nil {
		t.Fatalf("SellCoin: %v", err)
	}
	if _, err := svc.SellCoin(ctx, 1, "main", "btc", d(1), d(70)); err != nil {
		t.Fatalf("SellCoin: %v", err)
	}

	overview, err := svc.ListWallets(ctx, 1)
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	assertDecimal(t, overview.TotalProfit, 70, "total profit")
}

// --- Valuation ---

func TestWalletDetail_MissingQuoteDegradesToZero(t *testing.T) {
	svc := newTestService(t, map[string]decimal.Decimal{"btc": d(200)})
	ctx := context.Background()
	mustCreateWallet(t, svc, 1, "main")
	mustAddCoin(t, svc, 1, "main", "btc", d(1), dp(100))
	mustAddCoin(t, svc, 1, "main", "obscurecoin", d(10), dp(5))

	view, err := svc.WalletDetail(ctx, 1, "main")
	if err != nil {
		t.Fatalf("WalletDetail: %v", err)
	}
	if len(view.Coins) != 2 {
		t.Fatalf("coins = %d, want 2", len(view.Coins))
	}

	// Coins come back in id order: btc then obscurecoin.
	assertDecimal(t, view.Coins[0].CurrentValue, 200, "btc value")
	assertDecimal(t, view.Coins[0].UnrealizedPnL, 100, "btc pnl")
	assertDecimal(t, view.Coins[1].CurrentPrice, 0, "missing quote price")
	assertDecimal(t, view.Coins[1].UnrealizedPnL, -50, "missing quote pnl")

	assertDecimal(t, view.TotalValue, 200, "total value")
	assertDecimal(t, view.TotalInvested, 150, "total invested")
	assertDecimal(t, view.TotalPnL, 50, "total pnl")
}

func TestListWallets_EmptyUser(t *testing.T) {
	svc := newTestService(t, nil)

	overview, err := svc.ListWallets(context.Background(), 12345)
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	if len(overview.Wallets) != 0 {
		t.Errorf("wallets = %d, want 0", len(overview.Wallets))
	}
	if !overview.TotalProfit.IsZero() {
		t.Errorf("total profit = %s, want 0", overview.TotalProfit)
	}
}

// --- Leaderboard ---

func TestLeaderboard_SortsDescAndSkipsWalletless(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	seedProfit := func(userID int64, name string, buy, sell float64) {
		t.Helper()
		mustCreateWallet(t, svc, userID, "w-"+name)
		mustAddCoin(t, svc, userID, "w-"+name, "btc", d(1), dp(buy))
		if _, err := svc.SellCoin(ctx, userID, "w-"+name, "btc", d(1), d(sell)); err != nil {
			t.Fatalf("SellCoin for %s: %v", name, err)
		}
	}

	seedProfit(1, "alice", 100, 150) // +50
	seedProfit(2, "bob", 100, 90)    // -10
	seedProfit(3, "carol", 100, 300) // +200

	// A user who only ever ran /leaderboard has no wallets and is excluded.
	if _, err := svc.ListWallets(ctx, 4); err != nil {
		t.Fatalf("ListWallets: %v", err)
	}

	entries, err := svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	assertDecimal(t, entries[0].Profit, 200, "first profit")
	assertDecimal(t, entries[1].Profit, 50, "second profit")
	assertDecimal(t, entries[2].Profit, -10, "third profit")
}

