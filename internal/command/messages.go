package command

import (
	"fmt"
	"time"

	"github.com/domwatch/dominance-bot/internal/monitor"
)

// StatusMessage renders the informational monitor message: the current
// reading, its band classification, and the configured band.
func StatusMessage(r monitor.Reading) string {
	icon, state := "⚠️", "In alert band"
	switch r.State {
	case monitor.BandAbove:
		icon, state = "📈", "Above maximum threshold"
	case monitor.BandBelow:
		icon, state = "📉", "Below minimum threshold"
	}

	return fmt.Sprintf(`%s *USDT Monitor*

📊 *Dominance:* %s
💰 *Total Market Cap:* %s
💵 *USDT Market Cap:* %s

📈 *State:* %s
🎯 *Target band:* %g%% - %g%%

📅 %s`,
		icon,
		formatPercent(r.Dominance),
		formatMarketCap(r.TotalMarketCap),
		formatMarketCap(r.AssetMarketCap),
		state,
		r.MinThreshold, r.MaxThreshold,
		formatTime(r.At),
	)
}

// AlertMessage renders the distinct in-band alert.
func AlertMessage(r monitor.Reading) string {
	return fmt.Sprintf(`🚨 *USDT DOMINANCE ALERT*

📊 *Current dominance:* %s
💰 *Total Market Cap:* %s
💵 *USDT Market Cap:* %s

⚡ USDT dominance has dropped below %g%% but holds above %g%%

📅 %s`,
		formatPercent(r.Dominance),
		formatMarketCap(r.TotalMarketCap),
		formatMarketCap(r.AssetMarketCap),
		r.MaxThreshold, r.MinThreshold,
		formatTime(r.At),
	)
}

// ErrorMessage renders the monitor failure notification.
func ErrorMessage(err error, at time.Time) string {
	return fmt.Sprintf(`❌ *Monitor error*

📝 %v

📅 %s`, err, formatTime(at))
}
