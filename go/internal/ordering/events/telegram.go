package events

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier tells the floor staff when a table is done. Only checkout
// and expiry events produce a message.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Publish(ctx context.Context, event Event) error {
	text, ok, err := StaffNotice(event)
	if err != nil || !ok {
		return err
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("send telegram notice for order %s: %w", event.OrderID, err)
	}
	return nil
}

// StaffNotice renders the staff message for an event. ok is false for events
// the staff does not need to hear about.
func StaffNotice(event Event) (text string, ok bool, err error) {
	table := "-"
	if event.TableNumber != nil && *event.TableNumber != "" {
		table = *event.TableNumber
	}

	switch event.Type {
	case EventTypeOrderCheckedOut:
		var p OrderCheckedOutPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return "", false, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return fmt.Sprintf("✅ โต๊ะ %s เช็คบิลแล้ว (%d รายการ, ยอด %.2f)", table, p.ItemCount, p.TotalAmount), true, nil
	case EventTypeOrderExpired:
		var p OrderExpiredPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return "", false, fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		return fmt.Sprintf("⏰ โต๊ะ %s หมดเวลาแล้ว (%d รายการ)", table, p.ItemCount), true, nil
	}
	return "", false, nil
}
