package handler

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"buildbid/internal/model"
)

// Notifier delivers a notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, data map[string]string) (*model.Notification, error)
}

// notifyParties sends the same notification to every distinct recipient except the actor.
// Failures are logged and never surface to the caller.
func notifyParties(
	ctx context.Context,
	n Notifier,
	logger *zap.Logger,
	actor uuid.UUID,
	recipients []*uuid.UUID,
	kind model.NotificationType,
	title, message string,
	data map[string]string,
) {
	if n == nil {
		return
	}
	seen := map[uuid.UUID]bool{actor: true}
	for _, r := range recipients {
		if r == nil || seen[*r] {
			continue
		}
		seen[*r] = true
		if _, err := n.Notify(ctx, *r, kind, title, message, data); err != nil {
			logger.Warn("Failed to notify user",
				zap.String("user_id", r.String()),
				zap.String("type", string(kind)),
				zap.Error(err),
			)
		}
	}
}
