package portfolio

import "github.com/shopspring/decimal"

// CoinView is one coin position valued against the current quote.
type CoinView struct {
	ID                string
	Symbol            string
	Name              string
	Amount            decimal.Decimal
	AvgBuyPrice       decimal.Decimal
	CurrentPrice      decimal.Decimal
	Invested          decimal.Decimal
	CurrentValue      decimal.Decimal
	UnrealizedPnL     decimal.Decimal
	UnrealizedPercent decimal.Decimal
}

// WalletView is a valued wallet with per-coin and total figures.
type WalletView struct {
	Name            string
	Coins           []CoinView
	TotalInvested   decimal.Decimal
	TotalValue      decimal.Decimal
	TotalPnL        decimal.Decimal
	TotalPnLPercent decimal.Decimal
}

// WalletSummary is one line of the wallet listing.
type WalletSummary struct {
	Name      string
	CoinCount int
}

// Overview lists a user's wallets with the cached realized profit.
type Overview struct {
	Wallets     []WalletSummary
	TotalProfit decimal.Decimal
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Username    string
	Profit      decimal.Decimal
	WalletCount int
}
