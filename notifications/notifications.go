package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/agnosto/boosty-archiver/config"
	"github.com/agnosto/boosty-archiver/logger"
)

type NotificationService struct {
	config *config.Config
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		config: cfg,
	}
}

// NotifyArchiveComplete sends notifications after a creator's archive run
// finished successfully.
func (ns *NotificationService) NotifyArchiveComplete(user, summary string) {
	message := fmt.Sprintf("Finished archiving %s. %s", user, summary)
	ns.notify("Boosty Archive Complete", message, user, 3066993) // Green
}

// NotifyArchiveFailed sends notifications after a creator's archive run
// aborted with an error.
func (ns *NotificationService) NotifyArchiveFailed(user string, runErr error) {
	message := fmt.Sprintf("Archiving %s failed: %v", user, runErr)
	ns.notify("Boosty Archive Failed", message, user, 15158332) // Red
}

func (ns *NotificationService) notify(title, message, user string, color int) {
	if !ns.config.Notifications.Enabled {
		return
	}

	if ns.config.Notifications.SystemNotify {
		ns.sendSystemNotification(title, message)
	}

	if ns.config.Notifications.DiscordWebhook != "" {
		ns.sendDiscordNotification(title, message, user, color)
	}

	if ns.config.Notifications.TelegramBotToken != "" && ns.config.Notifications.TelegramChatID != "" {
		ns.sendTelegramNotification(message)
	}
}

func (ns *NotificationService) sendSystemNotification(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		logger.Logger.Printf("Failed to send system notification: %v", err)
	}
}

func (ns *NotificationService) sendDiscordNotification(title, message, user string, color int) {
	type DiscordEmbed struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Color       int    `json:"color"`
		Timestamp   string `json:"timestamp"`
		URL         string `json:"url,omitempty"`
		Footer      struct {
			Text string `json:"text"`
		} `json:"footer"`
	}

	type DiscordWebhookPayload struct {
		Embeds []DiscordEmbed `json:"embeds"`
	}

	embed := DiscordEmbed{
		Title:       title,
		Description: message,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		URL:         "https://boosty.to/" + user,
	}
	embed.Footer.Text = fmt.Sprintf("Creator: %s", user)

	payload := DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		logger.Logger.Printf("Failed to marshal Discord payload: %v", err)
		return
	}
	resp, err := http.Post(ns.config.Notifications.DiscordWebhook, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		logger.Logger.Printf("Failed to send Discord notification: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Logger.Printf("Discord webhook returned status: %d", resp.StatusCode)
	}
}

func (ns *NotificationService) sendTelegramNotification(message string) {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", ns.config.Notifications.TelegramBotToken)
	type TelegramPayload struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}
	payload := TelegramPayload{
		ChatID:    ns.config.Notifications.TelegramChatID,
		Text:      message,
		ParseMode: "HTML",
	}
	jsonPayload, _ := json.Marshal(payload)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		logger.Logger.Printf("Failed to send Telegram notification: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Logger.Printf("Telegram API returned status: %d", resp.StatusCode)
	}
}
