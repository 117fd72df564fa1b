package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"buildbid/internal/model"
)

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, limit int) ([]model.Notification, error) {
	v := url.Values{}
	if unreadOnly {
		v.Set("unread", "true")
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out []model.Notification
	err := c.do(ctx, http.MethodGet, withQuery("/notifications", v), nil, &out)
	return out, err
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Unread int64 `json:"unread"`
	}
	err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out)
	return out.Unread, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+id.String()+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPost, "/notifications/read-all", nil, &out)
	return out.Updated, err
}

// RegisterPushToken stores or refreshes a device token for the session's user.
func (c *Client) RegisterPushToken(ctx context.Context, token, platform string) error {
	return c.do(ctx, http.MethodPost, "/push/subscriptions", map[string]string{"token": token, "platform": platform}, nil)
}

func (c *Client) UnregisterPushToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/push/subscriptions/"+url.PathEscape(token), nil, nil)
}
