package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"buildbid/internal/client"
	"buildbid/internal/metrics"
	"buildbid/internal/model"
)

const defaultUnreadTTL = 5 * time.Minute

// NotificationStore persists notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID, now time.Time) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// SubscriptionStore lists and prunes device tokens.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushSubscription, error)
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
}

// Dispatcher stores notifications and fans them out to live sockets, redis subscribers and devices.
// Everything after the insert is best-effort.
type Dispatcher struct {
	store     NotificationStore
	subs      SubscriptionStore
	hub       *Hub
	redis     *redis.Client
	unreadTTL time.Duration
	push      client.PushSender
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Dispatcher)

// WithRedis enables the unread-count cache and per-user pub/sub. A nil client is ignored.
func WithRedis(rdb *redis.Client, unreadTTL time.Duration) Option {
	return func(d *Dispatcher) {
		d.redis = rdb
		if unreadTTL > 0 {
			d.unreadTTL = unreadTTL
		}
	}
}

// WithPush enables device pushes.
func WithPush(sender client.PushSender, subs SubscriptionStore) Option {
	return func(d *Dispatcher) {
		d.push = sender
		d.subs = subs
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(store NotificationStore, hub *Hub, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		hub:       hub,
		unreadTTL: defaultUnreadTTL,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify stores a notification for userID and delivers it. Only a failed insert is returned.
func (d *Dispatcher) Notify(
	ctx context.Context,
	userID uuid.UUID,
	kind model.NotificationType,
	title, message string,
	data map[string]string,
) (*model.Notification, error) {
	n := &model.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		n.Data = datatypes.JSON(raw)
	}

	if err := d.store.Create(ctx, n); err != nil {
		d.metrics.RecordNotification("store", err)
		return nil, fmt.Errorf("store notification: %w", err)
	}
	d.metrics.RecordNotification("store", nil)

	d.invalidateUnread(ctx, userID)

	payload, err := json.Marshal(n)
	if err != nil {
		d.logger.Error("Failed to marshal notification", zap.Error(err))
		return n, nil
	}
	d.publish(ctx, userID, payload)
	d.sendLive(userID, payload)
	d.sendPush(ctx, userID, n, data)

	d.logger.Info("Notification created",
		zap.String("id", n.ID.String()),
		zap.String("type", string(n.Type)),
		zap.String("user_id", userID.String()),
	)
	return n, nil
}

func (d *Dispatcher) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	return d.store.ListByUser(ctx, userID, unreadOnly, limit)
}

func (d *Dispatcher) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := d.store.MarkAsRead(ctx, id, userID, d.now()); err != nil {
		return err
	}
	d.invalidateUnread(ctx, userID)
	return nil
}

func (d *Dispatcher) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := d.store.MarkAllAsRead(ctx, userID, d.now())
	if err != nil {
		return 0, err
	}
	d.invalidateUnread(ctx, userID)
	return n, nil
}

// UnreadCount reads through the redis cache when one is configured.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := unreadKey(userID)
	if d.redis != nil {
		if cached, err := d.redis.Get(ctx, key).Int64(); err == nil {
			return cached, nil
		}
	}

	count, err := d.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if d.redis != nil {
		if err := d.redis.Set(ctx, key, count, d.unreadTTL).Err(); err != nil {
			d.logger.Warn("Failed to cache unread count", zap.Error(err))
		}
	}
	return count, nil
}

func (d *Dispatcher) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if d.redis == nil {
		return
	}
	if err := d.redis.Del(ctx, unreadKey(userID)).Err(); err != nil {
		d.logger.Error("Failed to invalidate unread cache", zap.Error(err))
	}
}

func (d *Dispatcher) publish(ctx context.Context, userID uuid.UUID, payload []byte) {
	if d.redis == nil {
		return
	}
	err := d.redis.Publish(ctx, Channel(userID), payload).Err()
	d.metrics.RecordNotification("redis", err)
	if err != nil {
		d.logger.Error("Failed to publish notification", zap.Error(err))
	}
}

func (d *Dispatcher) sendLive(userID uuid.UUID, payload []byte) {
	if d.hub == nil {
		return
	}
	if n := d.hub.SendToUser(userID, payload); n > 0 {
		d.metrics.RecordNotification("websocket", nil)
	}
}

func (d *Dispatcher) sendPush(ctx context.Context, userID uuid.UUID, n *model.Notification, data map[string]string) {
	if d.push == nil || d.subs == nil {
		return
	}

	subs, err := d.subs.ListByUser(ctx, userID)
	if err != nil {
		d.logger.Error("Failed to list push subscriptions", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}
	tokens := make([]string, len(subs))
	for i, s := range subs {
		tokens[i] = s.Token
	}

	msgData := map[string]string{"notification_id": n.ID.String(), "type": string(n.Type)}
	for k, v := range data {
		msgData[k] = v
	}

	invalid, err := d.push.SendToTokens(ctx, tokens, client.PushMessage{Title: n.Title, Body: n.Message, Data: msgData})
	d.metrics.RecordNotification("fcm", err)
	if err != nil {
		d.logger.Warn("Push delivery failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	if len(invalid) > 0 {
		removed, err := d.subs.DeleteTokens(ctx, invalid)
		if err != nil {
			d.logger.Error("Failed to drop invalid push tokens", zap.Error(err))
			return
		}
		d.logger.Info("Dropped invalid push tokens", zap.Int64("count", removed))
	}
}

// Channel is the redis pub/sub channel carrying a user's notifications.
func Channel(userID uuid.UUID) string {
	return "notifications:user:" + userID.String()
}

func unreadKey(userID uuid.UUID) string {
	return "unread:" + userID.String()
}
