package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/tutorlink/appointments/internal/model"
)

// TelegramNotifier posts status-change messages into the appointment's
// originating chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewTelegramNotifier(token string, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, logger: logger}, nil
}

func (n *TelegramNotifier) AppointmentChanged(ctx context.Context, a *model.Appointment, summary string) {
	text := fmt.Sprintf("%s\n%s, %d min — %s",
		summary,
		a.DateTime.Format("Mon 02 Jan 15:04"),
		a.DurationMinutes,
		a.Status,
	)

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: a.ChatID,
		Text:   text,
	})
	if err != nil {
		n.logger.Warn("Failed to send appointment notification",
			zap.String("appointment_id", a.ID.String()),
			zap.Int64("chat_id", a.ChatID),
			zap.Error(err),
		)
	}
}
