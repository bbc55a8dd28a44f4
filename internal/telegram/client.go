// Package telegram sends a front-page digest of each finished edition via
// the Telegram Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oddsdesk/polypress/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendDigest sends the edition's front page: the lead story in full, then
// the features as a numbered list.
func (c *Client) SendDigest(edition *models.Edition) error {
	return c.sendMarkdownV2(c.formatDigest(edition))
}

// SendError sends a pipeline error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(buildErr error) error {
	text := fmt.Sprintf("⚠️ *Edition build failed*\n`%s`", escapeMarkdownV2(buildErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a notification that the pipeline recovered after a run
// of consecutive failures.
func (c *Client) SendRecovery(failures int) error {
	text := fmt.Sprintf("✅ *Pipeline recovered* after %d failed cycle\\(s\\)", failures)
	return c.sendMarkdownV2(text)
}

// formatDigest formats an edition into a Telegram MarkdownV2 message.
func (c *Client) formatDigest(edition *models.Edition) string {
	var b strings.Builder

	dateStr := escapeMarkdownV2(edition.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "🗞 *Polypress Edition* — %s\n\n", dateStr)

	if lead := edition.Blueprint.Lead(); lead != nil {
		id := lead.Market.ID
		fmt.Fprintf(&b, "*%s*\n", escapeMarkdownV2(edition.Headlines[id]))
		fmt.Fprintf(&b, "_%s_\n", escapeMarkdownV2(firstSentence(edition.Articles[id])))
		fmt.Fprintf(&b, "📊 %s yes\n\n", escapeMarkdownV2(fmt.Sprintf("%.0f%%", lead.Market.YesProbability*100)))
	}

	n := 0
	for _, s := range edition.Blueprint.Stories {
		if s.Layout != models.LayoutFeature {
			continue
		}
		n++
		id := s.Market.ID
		fmt.Fprintf(&b, "%d\\. %s \\(%s\\)\n",
			n,
			escapeMarkdownV2(edition.Headlines[id]),
			escapeMarkdownV2(fmt.Sprintf("%.0f%%", s.Market.YesProbability*100)),
		)
	}

	return b.String()
}

// firstSentence returns text up to and including the first period, capped.
func firstSentence(text string) string {
	const max = 200
	if i := strings.Index(text, ". "); i >= 0 && i < max {
		return text[:i+1]
	}
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
