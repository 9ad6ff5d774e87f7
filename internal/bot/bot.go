package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hltvnotify/hltv-notify-bot/internal/config"
	"github.com/hltvnotify/hltv-notify-bot/internal/database"
	"github.com/hltvnotify/hltv-notify-bot/internal/models"
)

// Bot serves inbound Telegram interactions and delivers outbound
// notifications. It shares nothing with the ingestion loop except the store.
type Bot struct {
	API     *tgbotapi.BotAPI
	Repo    *database.Repository
	limiter *rate.Limiter
	done    chan struct{}
}

func New(repo *database.Repository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		API:  api,
		Repo: repo,
		// Telegram enforces a global sending budget; one limiter covers
		// both notification fan-out and interactive replies.
		limiter: rate.NewLimiter(rate.Limit(config.SendRatePerSecond), 1),
		done:    make(chan struct{}),
	}, nil
}

// Start begins long-polling for updates in a background goroutine.
func (b *Bot) Start() {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.API.GetUpdatesChan(updateConfig)

	log.Infof("Authorized as @%s", b.API.Self.UserName)

	go func() {
		defer close(b.done)
		for update := range updates {
			b.handleUpdate(update)
		}
	}()

	go b.heartbeat()
}

// Stop shuts down the update channel and waits for in-flight handling.
func (b *Bot) Stop() {
	b.API.StopReceivingUpdates()
	<-b.done
}

func (b *Bot) heartbeat() {
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()

	for {
		status := &models.ServiceStatus{
			ServiceName:   "telegram_bot",
			Status:        "operational",
			LastHeartbeat: time.Now(),
		}
		if err := b.Repo.UpsertServiceStatus(status); err != nil {
			log.Errorf("Error sending heartbeat: %v", err)
		}
		<-ticker.C
	}
}

// SendMatchAlert delivers a went-live notification with stream-link buttons.
// Implements the dispatcher's Sender.
func (b *Bot) SendMatchAlert(chatID int64, text string, streamLinks map[string]string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(streamLinks) > 0 {
		msg.ReplyMarkup = linksKeyboard(streamLinks)
	}
	return b.send(msg)
}

// send pushes any outbound payload through the shared rate limiter.
func (b *Bot) send(c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return err
	}
	_, err := b.API.Send(c)
	return err
}

func (b *Bot) isAdmin(userID int64) bool {
	if config.AdminID != 0 && userID == config.AdminID {
		return true
	}
	return b.Repo.IsAdmin(userID)
}
