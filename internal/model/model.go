// Package model defines the persisted domain types shared across the bot.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is the root of the portfolio document, keyed by Telegram user ID.
type Book struct {
	Users map[int64]*User `json:"users"`
}

// NewBook returns an empty portfolio book.
func NewBook() *Book {
	return &Book{Users: make(map[int64]*User)}
}

// GetOrCreateUser returns the record for userID, creating an empty one on
// first interaction. The returned bool reports whether the user was created.
func (b *Book) GetOrCreateUser(userID int64, username string) (*User, bool) {
	if b.Users == nil {
		b.Users = make(map[int64]*User)
	}
	if u, ok := b.Users[userID]; ok {
		return u, false
	}
	u := &User{
		Username: username,
		Wallets:  make(map[string]*Wallet),
	}
	b.Users[userID] = u
	return u, true
}

// User is one chat user's portfolio state. TotalProfit is a display cache
// only — it is recomputed from sales on every sell and leaderboard read,
// never trusted across restarts.
type User struct {
	Username    string             `json:"username"`
	Wallets     map[string]*Wallet `json:"wallets"`
	TotalProfit decimal.Decimal    `json:"total_profit"`
}

// RealizedProfit sums profit over every sale in every wallet.
func (u *User) RealizedProfit() decimal.Decimal {
	total := decimal.Zero
	for _, w := range u.Wallets {
		for _, c := range w.Coins {
			for _, s := range c.Sales {
				total = total.Add(s.Profit)
			}
		}
	}
	return total
}

// Wallet is a named container of coin positions. Wallets are never deleted.
type Wallet struct {
	Name    string                   `json:"name"`
	Coins   map[string]*CoinPosition `json:"coins"`
	Created time.Time                `json:"created"`
}

// CoinPosition is a user's holding of one coin within one wallet, keyed in
// the wallet by CoinGecko coin ID.
type CoinPosition struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	AvgBuyPrice   decimal.Decimal `json:"avg_buy_price"`
	Sales         []Sale          `json:"sales"`
}

// Sale is an immutable record of a realized disposal.
// Once appended, these are never modified or deleted.
type Sale struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	CostBasis     decimal.Decimal `json:"cost_basis"` // avg buy price per unit at time of sale
	Profit        decimal.Decimal `json:"profit"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	Date          time.Time       `json:"date"`
}

// Settings is the persisted subset of runtime configuration. Pointer fields
// distinguish "not overridden" from a zero value.
type Settings struct {
	CheckIntervalHours *int     `json:"check_interval_hours,omitempty"`
	MinThreshold       *float64 `json:"dominance_min_threshold,omitempty"`
	MaxThreshold       *float64 `json:"dominance_max_threshold,omitempty"`
	SendInfoMessages   *bool    `json:"send_info_messages,omitempty"`
}
