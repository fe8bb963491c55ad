// Package command parses chat commands, delegates to the portfolio ledger,
// monitor, and settings manager, and formats every reply.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/domwatch/dominance-bot/internal/config"
	"github.com/domwatch/dominance-bot/internal/metrics"
	"github.com/domwatch/dominance-bot/internal/monitor"
	"github.com/domwatch/dominance-bot/internal/portfolio"
)

// Message is one inbound chat message.
type Message struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

// Checker runs a manual dominance evaluation for a chat. The informational
// reply is delivered through the notifier, so a successful check needs no
// further router output.
type Checker interface {
	CheckNow(ctx context.Context, chatID int64) (monitor.Reading, error)
}

// Rescheduler re-arms the monitor timer after interval changes.
type Rescheduler interface {
	Restart(d time.Duration)
}

// Router maps commands to operations and renders replies.
type Router struct {
	ledger    *portfolio.Service
	monitor   Checker
	cfg       *config.Manager
	scheduler Rescheduler
}

// NewRouter creates a command router.
func NewRouter(ledger *portfolio.Service, mon Checker, cfg *config.Manager, sched Rescheduler) *Router {
	return &Router{ledger: ledger, monitor: mon, cfg: cfg, scheduler: sched}
}

// Handle processes one message and returns the reply text. An empty reply
// means nothing should be sent: non-commands and unknown commands stay
// silent, and a successful /status already replied through the notifier.
func (r *Router) Handle(ctx context.Context, msg Message) string {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}

	// Strip the @botname suffix Telegram appends in group chats.
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		metrics.CommandsTotal.WithLabelValues("help").Inc()
		return r.helpReply(msg.UserID)
	case "/status":
		metrics.CommandsTotal.WithLabelValues("status").Inc()
		return r.statusReply(ctx, msg.ChatID)
	case "/config":
		metrics.CommandsTotal.WithLabelValues("config").Inc()
		return r.configReply(msg.UserID)
	case "/create_wallet":
		metrics.CommandsTotal.WithLabelValues("create_wallet").Inc()
		return r.createWallet(ctx, msg, args)
	case "/add_coin":
		metrics.CommandsTotal.WithLabelValues("add_coin").Inc()
		return r.addCoin(ctx, msg, args)
	case "/sell_coin":
		metrics.CommandsTotal.WithLabelValues("sell_coin").Inc()
		return r.sellCoin(ctx, msg, args)
	case "/wallet":
		metrics.CommandsTotal.WithLabelValues("wallet").Inc()
		return r.walletDetail(ctx, msg, args)
	case "/wallets":
		metrics.CommandsTotal.WithLabelValues("wallets").Inc()
		return r.listWallets(ctx, msg)
	case "/leaderboard":
		metrics.CommandsTotal.WithLabelValues("leaderboard").Inc()
		return r.leaderboard(ctx)
	case "/set_interval":
		metrics.CommandsTotal.WithLabelValues("set_interval").Inc()
		return r.adminOnly(msg.UserID, func() string { return r.setInterval(ctx, args) })
	case "/set_threshold":
		metrics.CommandsTotal.WithLabelValues("set_threshold").Inc()
		return r.adminOnly(msg.UserID, func() string { return r.setThreshold(ctx, args) })
	case "/toggle_messages":
		metrics.CommandsTotal.WithLabelValues("toggle_messages").Inc()
		return r.adminOnly(msg.UserID, func() string { return r.toggleMessages(ctx) })
	case "/reload_config":
		metrics.CommandsTotal.WithLabelValues("reload_config").Inc()
		return r.adminOnly(msg.UserID, func() string { return r.reloadConfig(ctx) })
	}
	return ""
}

func (r *Router) adminOnly(userID int64, fn func() string) string {
	if !r.cfg.IsAdmin(userID) {
		return "❌ Only administrators can change the configuration"
	}
	return fn()
}

// --- Monitor commands ---

func (r *Router) statusReply(ctx context.Context, chatID int64) string {
	if _, err := r.monitor.CheckNow(ctx, chatID); err != nil {
		return fmt.Sprintf("❌ Failed to fetch data: %v", err)
	}
	// The reading was already delivered via the notifier.
	return ""
}

func (r *Router) helpReply(userID int64) string {
	s := r.cfg.Settings()

	var b strings.Builder
	b.WriteString(`🤖 *USDT Dominance Monitor + Portfolio Tracker*

📊 *Monitoring:*
/status - Current dominance
/config - Current configuration

💼 *Portfolios:*
/create_wallet <name> - Create a wallet
/add_coin <wallet> <coin> <amount> [price] - Record a buy
/sell_coin <wallet> <coin> <amount> <price> - Record a sale
/wallet <name> - View one wallet
/wallets - List your wallets
/leaderboard - Trader ranking
`)

	if r.cfg.IsAdmin(userID) {
		b.WriteString(`
🔧 *Admin commands:*
/set_interval <hours> - Change check interval (1-24)
/set_threshold <min> <max> - Change alert band
/toggle_messages - Toggle info messages
/reload_config - Reload configuration
`)
	}

	fmt.Fprintf(&b, "\n🎯 *USDT band:* %g%% - %g%%", s.MinThreshold, s.MaxThreshold)
	return b.String()
}

func (r *Router) configReply(userID int64) string {
	s := r.cfg.Settings()
	onOff := "Disabled ❌"
	if s.SendInfo {
		onOff = "Enabled ✅"
	}
	admin := "No ❌"
	if r.cfg.IsAdmin(userID) {
		admin = "Yes ✅"
	}

	return fmt.Sprintf(`⚙️ *Current configuration:*

🎯 *Band:* %g%% - %g%%
⏰ *Interval:* %d hour(s)
📨 *Info messages:* %s
👑 *You are admin:* %s

📅 %s`,
		s.MinThreshold, s.MaxThreshold,
		s.IntervalHours,
		onOff,
		admin,
		formatTime(time.Now()),
	)
}

// --- Portfolio commands ---

func (r *Router) createWallet(ctx context.Context, msg Message, args []string) string {
	if len(args) != 1 {
		return "❌ Usage: `/create_wallet <name>`\n\nExample: `/create_wallet main`"
	}

	wallet, err := r.ledger.CreateWallet(ctx, msg.UserID, msg.Username, args[0])
	if err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("✅ Wallet %q created!\n\nUse `/add_coin %s <coin> <amount> [buy_price]` to add coins",
		wallet.Name, wallet.Name)
}

func (r *Router) addCoin(ctx context.Context, msg Message, args []string) string {
	const usage = "❌ Usage: `/add_coin <wallet> <coin> <amount> [buy_price]`\n\nExample: `/add_coin main btc 0.5 45000`"
	if len(args) < 3 || len(args) > 4 {
		return usage
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return "❌ Amount must be a positive number"
	}
	var buyPrice *decimal.Decimal
	if len(args) == 4 {
		p, err := decimal.NewFromString(args[3])
		if err != nil {
			return "❌ Buy price must be a positive number"
		}
		buyPrice = &p
	}

	pos, err := r.ledger.AddCoin(ctx, msg.UserID, msg.Username, args[0], args[1], amount, buyPrice)
	if err != nil {
		return errorReply(err)
	}

	priced := ""
	if buyPrice != nil {
		priced = " at " + formatUSD(*buyPrice)
	}
	return fmt.Sprintf("✅ Added %s %s%s to wallet %q\n\n💰 Total %s: %s\n📊 Average price: %s",
		formatAmount(amount), pos.Symbol, priced, strings.ToLower(args[0]),
		pos.Symbol, formatAmount(pos.Amount), formatUSD(pos.AvgBuyPrice))
}

func (r *Router) sellCoin(ctx context.Context, msg Message, args []string) string {
	const usage = "❌ Usage: `/sell_coin <wallet> <coin> <amount> <sell_price>`\n\nExample: `/sell_coin main btc 0.1 50000`"
	if len(args) != 4 {
		return usage
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return "❌ Amount must be a positive number"
	}
	sellPrice, err := decimal.NewFromString(args[3])
	if err != nil {
		return "❌ Sell price must be a positive number"
	}

	sale, err := r.ledger.SellCoin(ctx, msg.UserID, args[0], args[1], amount, sellPrice)
	if err != nil {
		return errorReply(err)
	}

	mark, trend := "✅", "📈"
	if sale.Profit.IsNegative() {
		mark, trend = "❌", "📉"
	}
	return fmt.Sprintf(`%s *Sale recorded*

💰 %s %s sold at %s
📊 Average buy price: %s
%s Profit: %s (%s%%)`,
		mark,
		formatAmount(sale.Amount), strings.ToUpper(args[1]), formatUSD(sale.Price),
		formatUSD(sale.CostBasis),
		trend, formatUSD(sale.Profit), formatNumber(sale.ProfitPercent, 2))
}

func (r *Router) walletDetail(ctx context.Context, msg Message, args []string) string {
	if len(args) != 1 {
		return "❌ Usage: `/wallet <name>`\n\nExample: `/wallet main`"
	}

	view, err := r.ledger.WalletDetail(ctx, msg.UserID, args[0])
	if err != nil {
		return errorReply(err)
	}
	if len(view.Coins) == 0 {
		return fmt.Sprintf("📁 Wallet %q is empty\n\nUse `/add_coin %s <coin> <amount>` to add coins",
			view.Name, view.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💼 *Wallet: %s*\n\n", view.Name)
	for _, c := range view.Coins {
		trend := "📈"
		if c.UnrealizedPnL.IsNegative() {
			trend = "📉"
		}
		fmt.Fprintf(&b, "🪙 *%s* (%s)\n", c.Symbol, c.Name)
		fmt.Fprintf(&b, "   💰 Amount: %s\n", formatAmount(c.Amount))
		fmt.Fprintf(&b, "   💵 Current price: %s\n", formatUSD(c.CurrentPrice))
		fmt.Fprintf(&b, "   📊 Average price: %s\n", formatUSD(c.AvgBuyPrice))
		fmt.Fprintf(&b, "   💎 Current value: %s\n", formatUSD(c.CurrentValue))
		fmt.Fprintf(&b, "   %s P&L: %s (%s%%)\n\n", trend, formatUSD(c.UnrealizedPnL), formatNumber(c.UnrealizedPercent, 2))
	}

	trend := "📈"
	if view.TotalPnL.IsNegative() {
		trend = "📉"
	}
	b.WriteString("━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "💼 *Total invested:* %s\n", formatUSD(view.TotalInvested))
	fmt.Fprintf(&b, "💎 *Current value:* %s\n", formatUSD(view.TotalValue))
	fmt.Fprintf(&b, "%s *Total P&L:* %s (%s%%)", trend, formatUSD(view.TotalPnL), formatNumber(view.TotalPnLPercent, 2))
	return b.String()
}

func (r *Router) listWallets(ctx context.Context, msg Message) string {
	overview, err := r.ledger.ListWallets(ctx, msg.UserID)
	if err != nil {
		return errorReply(err)
	}
	if len(overview.Wallets) == 0 {
		return "📁 You have no wallets yet\n\nUse `/create_wallet <name>` to create your first wallet"
	}

	var b strings.Builder
	b.WriteString("💼 *Your wallets*\n\n")
	for _, w := range overview.Wallets {
		fmt.Fprintf(&b, "📁 *%s* - %d coin(s)\n", w.Name, w.CoinCount)
	}
	fmt.Fprintf(&b, "\n🎯 Total realized profit: %s\n\n", formatUSD(overview.TotalProfit))
	b.WriteString("Use `/wallet <name>` for details")
	return b.String()
}

func (r *Router) leaderboard(ctx context.Context) string {
	entries, err := r.ledger.Leaderboard(ctx)
	if err != nil {
		return errorReply(err)
	}
	if len(entries) == 0 {
		return "📊 No portfolios created yet"
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("🏆 *Trading Leaderboard*\n\n")
	for i, e := range entries {
		medal := "🔸"
		if i < len(medals) {
			medal = medals[i]
		}
		trend := "📈"
		if e.Profit.IsNegative() {
			trend = "📉"
		}
		fmt.Fprintf(&b, "%s *%s*\n", medal, e.Username)
		fmt.Fprintf(&b, "   %s Profit: %s\n", trend, formatUSD(e.Profit))
		fmt.Fprintf(&b, "   📁 Wallets: %d\n\n", e.WalletCount)
	}
	return b.String()
}

// --- Admin commands ---

func (r *Router) setInterval(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "❌ Usage: `/set_interval <hours>` (1-24)"
	}
	hours, err := strconv.Atoi(args[0])
	if err != nil {
		return "❌ Usage: `/set_interval <hours>` (1-24)"
	}
	if err := r.cfg.SetInterval(ctx, hours); err != nil {
		return errorReply(err)
	}
	r.scheduler.Restart(time.Duration(hours) * time.Hour)
	return fmt.Sprintf("✅ Interval changed to %d hour(s)", hours)
}

func (r *Router) setThreshold(ctx context.Context, args []string) string {
	const usage = "❌ Usage: `/set_threshold <min> <max>`\n\nExample: `/set_threshold 3.5 4.0`"
	if len(args) != 2 {
		return usage
	}
	min, err1 := strconv.ParseFloat(args[0], 64)
	max, err2 := strconv.ParseFloat(args[1], 64)
	if err1 != nil || err2 != nil {
		return usage
	}
	if err := r.cfg.SetThresholds(ctx, min, max); err != nil {
		return errorReply(err)
	}
	return fmt.Sprintf("✅ Thresholds changed to %g%% - %g%%", min, max)
}

func (r *Router) toggleMessages(ctx context.Context) string {
	if r.cfg.ToggleInfoMessages(ctx) {
		return "✅ Info messages enabled"
	}
	return "✅ Info messages disabled"
}

func (r *Router) reloadConfig(ctx context.Context) string {
	if err := r.cfg.Reload(ctx); err != nil {
		return errorReply(err)
	}
	r.scheduler.Restart(r.cfg.Settings().Interval())
	return "✅ Configuration reloaded from file and environment"
}

// errorReply maps operation errors to user-facing text.
func errorReply(err error) string {
	switch {
	case errors.Is(err, portfolio.ErrInvalidName):
		return "❌ Wallet name must be between 2 and 20 characters"
	case errors.Is(err, portfolio.ErrWalletExists):
		return "❌ You already have a wallet with that name"
	case errors.Is(err, portfolio.ErrWalletNotFound):
		return "❌ No wallet with that name. Use `/create_wallet <name>` first"
	case errors.Is(err, portfolio.ErrCoinNotFound):
		return "❌ Coin not found on CoinGecko"
	case errors.Is(err, portfolio.ErrInvalidAmount):
		return "❌ Amount must be a positive number"
	case errors.Is(err, portfolio.ErrInvalidPrice):
		return "❌ Price must be a positive number"
	case errors.Is(err, portfolio.ErrInsufficientHoldings):
		return "❌ Not enough holdings in that wallet for this sale"
	case errors.Is(err, config.ErrIntervalRange):
		return "❌ Interval must be between 1 and 24 hours"
	case errors.Is(err, config.ErrThresholdOrder):
		return "❌ Minimum threshold must be below maximum"
	case errors.Is(err, config.ErrThresholdRange):
		return "❌ Thresholds must be between 0 and 100"
	default:
		return fmt.Sprintf("❌ Something went wrong: %v", err)
	}
}
