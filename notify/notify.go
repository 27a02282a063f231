// Package notify sends an optional Telegram notice when a scan completes,
// with the head of the ranking.
package notify

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"steamrank/ranking"
)

// topCount is how many leading entries the completion notice includes.
const topCount = 5

// Notifier delivers run summaries to a Telegram chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New creates a Notifier for the given bot token and chat.
func New(token string, chatID int64) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: creating bot: %w", err)
	}
	return &Notifier{api: api, chatID: chatID}, nil
}

// RunCompleted sends the completion notice for a finished scan.
func (n *Notifier) RunCompleted(entries []ranking.Entry, scanned int, elapsed time.Duration) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatSummary(entries, scanned, elapsed))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("notify: sending summary: %w", err)
	}
	return nil
}

// FormatSummary renders the completion notice as Telegram HTML.
func FormatSummary(entries []ranking.Entry, scanned int, elapsed time.Duration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎮 <b>JP review ranking updated</b>\n\n")
	fmt.Fprintf(&sb, "Scanned %d apps, %d qualified (%s)\n", scanned, len(entries), elapsed.Round(time.Second))

	count := topCount
	if len(entries) < count {
		count = len(entries)
	}
	if count > 0 {
		sb.WriteString("\n")
		for i := 0; i < count; i++ {
			e := entries[i]
			fmt.Fprintf(&sb, "%d. <a href=\"%s\">%s</a> %.2f%% (%d reviews)\n",
				i+1, e.StoreURL, escapeHTML(e.Name), e.PositiveRateJP, e.TotalReviewsJP)
		}
	}
	return sb.String()
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
