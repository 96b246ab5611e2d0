package gateway

import (
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/sahaay/internal/conversation"
)

// TelegramNotifier messages the operator whenever a task reaches a terminal
// status. Registered as a state listener; it keeps the task IDs it already
// announced so a burst of state changes never double-notifies.
type TelegramNotifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64

	mu       sync.Mutex
	notified map[string]bool
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Telegram notifier authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{
		Bot:      bot,
		ChatID:   chatID,
		notified: make(map[string]bool),
	}, nil
}

// Listen is the conversation.Listener hook. Send errors are logged and
// swallowed so a Telegram outage never affects the mutating caller.
func (tn *TelegramNotifier) Listen(state *conversation.State) {
	if len(state.TaskHistory) == 0 {
		return
	}
	task := state.TaskHistory[len(state.TaskHistory)-1]

	tn.mu.Lock()
	if tn.notified[task.ID] {
		tn.mu.Unlock()
		return
	}
	tn.notified[task.ID] = true
	tn.mu.Unlock()

	icon := "✅"
	if task.Status == conversation.StatusFailed {
		icon = "❌"
	}
	text := fmt.Sprintf("%s *Task %s*\n%s\n\n%s", icon, task.Status, task.Description, task.Result)

	msg := tgbotapi.NewMessage(tn.ChatID, text)
	msg.ParseMode = "Markdown"
	if _, err := tn.Bot.Send(msg); err != nil {
		log.Printf("telegram notify failed: %v", err)
	}
}
