// Package portfolio implements per-user crypto bookkeeping: wallets, buys
// with weighted-average cost basis, sells with realized-profit accounting,
// wallet valuation, and the profit leaderboard.
//
// All monetary values use shopspring/decimal — never float64 for money.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/domwatch/dominance-bot/internal/market"
	"github.com/domwatch/dominance-bot/internal/model"
	"github.com/domwatch/dominance-bot/internal/store"
)

const (
	minWalletName = 2
	maxWalletName = 20
)

var hundred = decimal.NewFromInt(100)

// Service handles portfolio operations. Mutations round-trip the whole book
// through the store and are serialized behind a mutex (single-instance); the
// persisted document itself stays last-write-wins.
type Service struct {
	store  store.Store
	coins  market.CoinFinder
	prices market.PriceSource
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates a portfolio service.
func NewService(st store.Store, coins market.CoinFinder, prices market.PriceSource) *Service {
	return &Service{
		store:  st,
		coins:  coins,
		prices: prices,
		now:    time.Now,
	}
}

// CreateWallet creates an empty wallet for the user, creating the user
// record on first interaction. Names are normalized to lower case and must
// be unique per user.
func (s *Service) CreateWallet(ctx context.Context, userID int64, username, name string) (*model.Wallet, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if n := utf8.RuneCountInString(name); n < minWalletName || n > maxWalletName {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}
	user, _ := book.GetOrCreateUser(userID, username)

	if _, ok := user.Wallets[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	wallet := &model.Wallet{
		Name:    name,
		Coins:   make(map[string]*model.CoinPosition),
		Created: s.now().UTC(),
	}
	user.Wallets[name] = wallet

	s.save(ctx, book)
	slog.Info("wallet created", "user", userID, "wallet", name)
	return wallet, nil
}

// AddCoin records a buy into a wallet. The coin query is resolved through
// the coin finder; the position is created lazily on first buy. A priced buy
// moves the weighted-average cost basis; an unpriced buy only tops up the
// quantity.
func (s *Service) AddCoin(ctx context.Context, userID int64, username, walletName, query string, amount decimal.Decimal, buyPrice *decimal.Decimal) (*model.CoinPosition, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if buyPrice != nil && !buyPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}
	user, _ := book.GetOrCreateUser(userID, username)

	wallet, ok := user.Wallets[normalizeName(walletName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, walletName)
	}

	coin, ok := s.coins.Search(ctx, strings.ToLower(strings.TrimSpace(query)))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCoinNotFound, query)
	}

	pos, ok := wallet.Coins[coin.ID]
	if !ok {
		pos = &model.CoinPosition{
			Symbol: strings.ToUpper(coin.Symbol),
			Name:   coin.Name,
		}
		wallet.Coins[coin.ID] = pos
	}

	if buyPrice != nil {
		// New weighted average: (held*avg + added*price) / (held+added).
		currentValue := pos.Amount.Mul(pos.AvgBuyPrice)
		newInvestment := amount.Mul(*buyPrice)
		totalAmount := pos.Amount.Add(amount)
		pos.AvgBuyPrice = currentValue.Add(newInvestment).Div(totalAmount)
		pos.TotalInvested = pos.TotalInvested.Add(newInvestment)
	}
	pos.Amount = pos.Amount.Add(amount)

	s.save(ctx, book)
	slog.Info("coin added",
		"user", userID,
		"wallet", wallet.Name,
		"coin", coin.ID,
		"amount", amount.String(),
		"priced", buyPrice != nil,
	)
	return pos, nil
}

// SellCoin records a realized disposal: appends an immutable sale, removes
// cost basis at the current average rate, and recomputes the user's total
// realized profit. A sell exceeding the holding is rejected without touching
// the position.
func (s *Service) SellCoin(ctx context.Context, userID int64, walletName, query string, amount, sellPrice decimal.Decimal) (*model.Sale, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !sellPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}

	// Sells never create users or positions.
	user, ok := book.Users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, walletName)
	}
	wallet, ok := user.Wallets[normalizeName(walletName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, walletName)
	}

	coin, ok := s.coins.Search(ctx, strings.ToLower(strings.TrimSpace(query)))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCoinNotFound, query)
	}
	pos, ok := wallet.Coins[coin.ID]
	if !ok {
		return nil, fmt.Errorf("%w: no %s holding in %q", ErrCoinNotFound, coin.ID, wallet.Name)
	}

	if amount.GreaterThan(pos.Amount) {
		return nil, fmt.Errorf("%w: have %s, asked %s", ErrInsufficientHoldings, pos.Amount, amount)
	}

	costBasis := amount.Mul(pos.AvgBuyPrice)
	saleValue := amount.Mul(sellPrice)
	profit := saleValue.Sub(costBasis)
	profitPercent := decimal.Zero
	if costBasis.IsPositive() {
		profitPercent = profit.Div(costBasis).Mul(hundred)
	}

	sale := model.Sale{
		ID:            uuid.New().String(),
		Amount:        amount,
		Price:         sellPrice,
		CostBasis:     pos.AvgBuyPrice,
		Profit:        profit,
		ProfitPercent: profitPercent,
		Date:          s.now().UTC(),
	}
	pos.Sales = append(pos.Sales, sale)
	pos.Amount = pos.Amount.Sub(amount)
	pos.TotalInvested = pos.TotalInvested.Sub(costBasis)
	user.TotalProfit = user.RealizedProfit()

	s.save(ctx, book)
	slog.Info("sale recorded",
		"user", userID,
		"wallet", wallet.Name,
		"coin", coin.ID,
		"amount", amount.String(),
		"price", sellPrice.String(),
		"profit", profit.String(),
	)
	return &sale, nil
}

// WalletDetail values a wallet against live quotes: per-coin current value
// and unrealized P&L plus wallet totals. Missing quotes are treated as zero
// so a price outage degrades the view instead of failing it.
func (s *Service) WalletDetail(ctx context.Context, userID int64, walletName string) (*WalletView, error) {
	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := book.Users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, walletName)
	}
	wallet, ok := user.Wallets[normalizeName(walletName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, walletName)
	}

	view := &WalletView{Name: wallet.Name}
	if len(wallet.Coins) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(wallet.Coins))
	for id := range wallet.Coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	quotes := s.prices.Prices(ctx, ids)

	for _, id := range ids {
		pos := wallet.Coins[id]
		price := quotes[id] // zero when the quote is missing
		value := pos.Amount.Mul(price)
		pnl := value.Sub(pos.TotalInvested)
		pnlPercent := decimal.Zero
		if pos.TotalInvested.IsPositive() {
			pnlPercent = pnl.Div(pos.TotalInvested).Mul(hundred)
		}

		view.Coins = append(view.Coins, CoinView{
			ID:                id,
			Symbol:            pos.Symbol,
			Name:              pos.Name,
			Amount:            pos.Amount,
			AvgBuyPrice:       pos.AvgBuyPrice,
			CurrentPrice:      price,
			Invested:          pos.TotalInvested,
			CurrentValue:      value,
			UnrealizedPnL:     pnl,
			UnrealizedPercent: pnlPercent,
		})
		view.TotalValue = view.TotalValue.Add(value)
		view.TotalInvested = view.TotalInvested.Add(pos.TotalInvested)
	}

	view.TotalPnL = view.TotalValue.Sub(view.TotalInvested)
	if view.TotalInvested.IsPositive() {
		view.TotalPnLPercent = view.TotalPnL.Div(view.TotalInvested).Mul(hundred)
	}
	return view, nil
}

// ListWallets returns the user's wallet names with coin counts and the
// cached total realized profit. A user with no wallets gets an empty
// overview, not an error.
func (s *Service) ListWallets(ctx context.Context, userID int64) (*Overview, error) {
	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{}
	user, ok := book.Users[userID]
	if !ok {
		return overview, nil
	}

	names := make([]string, 0, len(user.Wallets))
	for name := range user.Wallets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		overview.Wallets = append(overview.Wallets, WalletSummary{
			Name:      name,
			CoinCount: len(user.Wallets[name].Coins),
		})
	}
	overview.TotalProfit = user.TotalProfit
	return overview, nil
}

// Leaderboard ranks users holding at least one wallet by freshly recomputed
// realized profit, descending. The sort is stable over user-ID order.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	book, err := s.store.LoadBook(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(book.Users))
	for id := range book.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var entries []LeaderboardEntry
	for _, id := range ids {
		user := book.Users[id]
		if len(user.Wallets) == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Username:    user.Username,
			Profit:      user.RealizedProfit(),
			WalletCount: len(user.Wallets),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Profit.GreaterThan(entries[j].Profit)
	})
	return entries, nil
}

// save rewrites the book. Write failures are logged, not surfaced — the
// operation already applied in memory and the next write will retry.
func (s *Service) save(ctx context.Context, book *model.Book) {
	if err := s.store.SaveBook(ctx, book); err != nil {
		slog.Warn("portfolio save failed", "err", err)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
