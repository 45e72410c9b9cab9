// Package telegram provides the operator bot: settlement reports on command
// and snapshot-health notifications.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/auctionledger/internal/ledger"
	"github.com/rewired-gh/auctionledger/internal/logger"
	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
)

// Reporter is the report surface the bot commands use.
type Reporter interface {
	Settle(ctx context.Context, w models.Window, byAmount bool) (models.Settlement, error)
	Statement(ctx context.Context, w models.Window, participantID string) (models.Statement, error)
	Hours(ctx context.Context, w *models.Window) (reconcile.HoursReport, error)
	VIP(ctx context.Context) ([]models.VipStanding, error)
	Dates(ctx context.Context) ([]time.Time, error)
}

// Client handles Telegram commands and notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	reports        Reporter
	ledger         *ledger.Ledger
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
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

// AttachReports enables the report commands. The ledger may be nil, in which
// case settlement replies omit remaining totals.
func (c *Client) AttachReports(r Reporter, l *ledger.Ledger) {
	c.reports = r
	c.ledger = l
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(ctx, update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	// Settlement data only goes to the operator chat.
	if msg.Chat.ID != c.chatID {
		return
	}

	var text string
	var err error
	switch msg.Command() {
	case "ping":
		text = "Pong"
	case "dates":
		text, err = c.runDates(ctx)
	case "settle":
		text, err = c.runSettle(ctx, msg.CommandArguments())
	case "hours":
		text, err = c.runHours(ctx, msg.CommandArguments())
	case "vip":
		text, err = c.runVIP(ctx)
	case "statement":
		text, err = c.runStatement(ctx, msg.CommandArguments())
	default:
		return
	}
	if err != nil {
		logger.Warn("Telegram /%s failed: %v", msg.Command(), err)
		text = "⚠️ " + escapeMarkdownV2(err.Error())
	}
	if err := c.sendMarkdownV2(text); err != nil {
		logger.Error("Failed to reply to /%s: %v", msg.Command(), err)
	}
}

var errNoReports = errors.New("reports are not attached")

// resolveWindow parses "2024-05-01" or "2024-05-01 2024-05-03". With no
// arguments it picks the most recent auction date.
func (c *Client) resolveWindow(ctx context.Context, args []string) (models.Window, error) {
	switch len(args) {
	case 0:
		dates, err := c.reports.Dates(ctx)
		if err != nil {
			return models.Window{}, err
		}
		if len(dates) == 0 {
			return models.Window{}, errors.New("no auction dates yet")
		}
		return models.SingleDay(dates[0]), nil
	case 1:
		d, err := time.Parse(models.DateLayout, args[0])
		if err != nil {
			return models.Window{}, fmt.Errorf("%w: %s", models.ErrInvalidWindow, args[0])
		}
		return models.SingleDay(d), nil
	default:
		f, errF := time.Parse(models.DateLayout, args[0])
		t, errT := time.Parse(models.DateLayout, args[1])
		if errF != nil || errT != nil {
			return models.Window{}, fmt.Errorf("%w: %s %s", models.ErrInvalidWindow, args[0], args[1])
		}
		return models.DateRange(f, t)
	}
}

func (c *Client) runDates(ctx context.Context) (string, error) {
	if c.reports == nil {
		return "", errNoReports
	}
	dates, err := c.reports.Dates(ctx)
	if err != nil {
		return "", err
	}
	return formatDates(dates), nil
}

func (c *Client) runSettle(ctx context.Context, argLine string) (string, error) {
	if c.reports == nil {
		return "", errNoReports
	}
	w, err := c.resolveWindow(ctx, strings.Fields(argLine))
	if err != nil {
		return "", err
	}
	s, err := c.reports.Settle(ctx, w, false)
	if err != nil {
		return "", err
	}
	remainingIn, remainingOut := s.TotalPayIn(), s.TotalPayOut()
	if c.ledger != nil {
		remainingIn = c.ledger.Remaining(w.ID, models.DirectionCollect, s.PayIn)
		remainingOut = c.ledger.Remaining(w.ID, models.DirectionPayout, s.PayOut)
	}
	return formatSettlement(s, remainingIn, remainingOut), nil
}

func (c *Client) runHours(ctx context.Context, argLine string) (string, error) {
	if c.reports == nil {
		return "", errNoReports
	}
	var wp *models.Window
	if args := strings.Fields(argLine); len(args) > 0 {
		w, err := c.resolveWindow(ctx, args)
		if err != nil {
			return "", err
		}
		wp = &w
	}
	report, err := c.reports.Hours(ctx, wp)
	if err != nil {
		return "", err
	}
	return formatHours(report), nil
}

func (c *Client) runVIP(ctx context.Context) (string, error) {
	if c.reports == nil {
		return "", errNoReports
	}
	standings, err := c.reports.VIP(ctx)
	if err != nil {
		return "", err
	}
	return formatVIP(standings), nil
}

func (c *Client) runStatement(ctx context.Context, argLine string) (string, error) {
	if c.reports == nil {
		return "", errNoReports
	}
	args := strings.Fields(argLine)
	if len(args) == 0 {
		return "", errors.New("usage: /statement <nickname> [date] [to-date]")
	}
	w, err := c.resolveWindow(ctx, args[1:])
	if err != nil {
		return "", err
	}
	st, err := c.reports.Statement(ctx, w, args[0])
	if err != nil {
		return "", err
	}
	return formatStatement(st), nil
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

// SendError sends a snapshot refresh error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(refreshErr error) error {
	text := fmt.Sprintf("⚠️ *Snapshot refresh failed*\n`%s`", escapeMarkdownV2(refreshErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Snapshot source recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
