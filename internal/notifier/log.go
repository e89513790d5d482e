package notifier

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the log instead of a chat.
// It is used when no bot token is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log.With("component", "notifier")}
}

func (n *LogNotifier) SendMessage(_ context.Context, chatID, text string) error {
	n.log.Info("Notification", "chat", chatID, "text", text)
	return nil
}
