// Package view builds display values from domain state: price and date
// formatting, status labels and search-result markup.
package view

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/maks2008271/supercell-shop/internal/domain"
)

// FormatPrice renders a price the way product cards show it: the fraction is
// truncated and thousands are grouped with spaces, e.g. 12345.9 → "12 345".
func FormatPrice(price float64) string {
	n := int64(math.Floor(price))
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// PriceWithCurrency appends the rouble sign, e.g. "12 345₽".
func PriceWithCurrency(price float64) string {
	return FormatPrice(price) + "₽"
}

// statusLabels maps order statuses to their display text.
var statusLabels = map[domain.OrderStatus]string{
	domain.OrderStatusCompleted:      "Выполнен",
	domain.OrderStatusPending:        "В обработке",
	domain.OrderStatusPaid:           "Оплачен",
	domain.OrderStatusPendingPayment: "Ожидает оплаты",
	domain.OrderStatusCancelled:      "Отменён",
	domain.OrderStatusPaymentFailed:  "Ошибка оплаты",
}

// StatusLabel returns the display text for an order status, falling back to
// the raw value for unknown statuses.
func StatusLabel(status domain.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

// gameIcons decorates order rows and search results per game.
var gameIcons = map[string]string{
	domain.GameBrawlStars:   "⭐",
	domain.GameClashRoyale:  "👑",
	domain.GameClashOfClans: "⚔️",
}

// GameIcon returns the emoji shown next to a game, with a generic fallback.
func GameIcon(game string) string {
	if icon, ok := gameIcons[game]; ok {
		return icon
	}
	return "🎮"
}

// ruMonths are the short month names used in order dates.
var ruMonths = [...]string{
	"янв.", "февр.", "мар.", "апр.", "мая", "июн.",
	"июл.", "авг.", "сент.", "окт.", "нояб.", "дек.",
}

// FormatOrderDate renders a creation timestamp the way the order history
// shows it: day number and short month, e.g. "3 окт.".
func FormatOrderDate(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + ruMonths[t.Month()-1]
}
