package notify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"buildbid/internal/client"
	"buildbid/internal/database"
	"buildbid/internal/metrics"
	"buildbid/internal/model"
	"buildbid/internal/notify"
	"buildbid/internal/repository"
)

type mockPushSender struct {
	mock.Mock
}

func (m *mockPushSender) SendToTokens(ctx context.Context, tokens []string, msg client.PushMessage) ([]string, error) {
	args := m.Called(ctx, tokens, msg)
	invalid, _ := args.Get(0).([]string)
	return invalid, args.Error(1)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestDispatcher_NotifyStoresAndPushes(t *testing.T) {
	db := setupDB(t)
	store := repository.NewNotificationRepository(db)
	subs := repository.NewPushSubscriptionRepository(db)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, subs.Upsert(ctx, &model.PushSubscription{UserID: user, Token: "good", RefreshedAt: time.Now()}))
	require.NoError(t, subs.Upsert(ctx, &model.PushSubscription{UserID: user, Token: "stale", RefreshedAt: time.Now()}))

	sender := &mockPushSender{}
	sender.On("SendToTokens", mock.Anything, mock.MatchedBy(func(tokens []string) bool { return len(tokens) == 2 }),
		mock.MatchedBy(func(msg client.PushMessage) bool {
			return msg.Title == "Status changed" && msg.Data["project_id"] == "p-1" && msg.Data["type"] == "project_status_changed"
		})).
		Return([]string{"stale"}, nil).Once()

	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	d := notify.NewDispatcher(store, nil, zap.NewNop(), notify.WithPush(sender, subs), notify.WithMetrics(m))

	n, err := d.Notify(ctx, user, model.NotificationStatusChanged, "Status changed", "Harbor moved to won",
		map[string]string{"project_id": "p-1"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, n.ID)
	sender.AssertExpectations(t)

	var data map[string]string
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, "p-1", data["project_id"])

	count, err := d.UnreadCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	remaining, err := subs.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "good", remaining[0].Token)
}

func TestDispatcher_PushFailureDoesNotFailNotify(t *testing.T) {
	db := setupDB(t)
	store := repository.NewNotificationRepository(db)
	subs := repository.NewPushSubscriptionRepository(db)
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, subs.Upsert(ctx, &model.PushSubscription{UserID: user, Token: "t", RefreshedAt: time.Now()}))

	sender := &mockPushSender{}
	sender.On("SendToTokens", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	d := notify.NewDispatcher(store, nil, zap.NewNop(), notify.WithPush(sender, subs))
	_, err := d.Notify(ctx, user, model.NotificationCommentAdded, "New comment", "", nil)
	assert.NoError(t, err)

	list, err := d.List(ctx, user, false, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDispatcher_MarkRead(t *testing.T) {
	db := setupDB(t)
	d := notify.NewDispatcher(repository.NewNotificationRepository(db), nil, zap.NewNop(), notify.WithRedis(nil, time.Minute))
	ctx := context.Background()
	user := uuid.New()

	first, err := d.Notify(ctx, user, model.NotificationTicketAssigned, "a", "", nil)
	require.NoError(t, err)
	_, err = d.Notify(ctx, user, model.NotificationTicketAssigned, "b", "", nil)
	require.NoError(t, err)

	require.NoError(t, d.MarkAsRead(ctx, first.ID, user))
	assert.ErrorIs(t, d.MarkAsRead(ctx, first.ID, uuid.New()), repository.ErrNotificationNotFound)

	count, err := d.UnreadCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err := d.MarkAllAsRead(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("7d9f3c1e-0000-4000-8000-000000000001")
	assert.Equal(t, "notifications:user:7d9f3c1e-0000-4000-8000-000000000001", notify.Channel(id))
}

func dialHub(t *testing.T, hub *notify.Hub, user uuid.UUID) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, user)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws
}

func TestHub_DeliversToUserConnections(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	user := uuid.New()

	ws := dialHub(t, hub, user)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	assert.Zero(t, hub.SendToUser(uuid.New(), []byte("nobody")))
	assert.Equal(t, 1, hub.SendToUser(user, []byte(`{"title":"hi"}`)))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hi"}`, string(msg))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := notify.NewHub(zap.NewNop())
	user := uuid.New()

	ws := dialHub(t, hub, user)
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return hub.Connections(user) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatcher_NotifyReachesLiveSocket(t *testing.T) {
	db := setupDB(t)
	hub := notify.NewHub(zap.NewNop())
	d := notify.NewDispatcher(repository.NewNotificationRepository(db), hub, zap.NewNop())
	user := uuid.New()

	ws := dialHub(t, hub, user)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Connections(user) == 1 }, time.Second, 10*time.Millisecond)

	_, err := d.Notify(context.Background(), user, model.NotificationDeadlineSoon, "Deadline soon", "Depot is due tomorrow", nil)
	require.NoError(t, err)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var got model.Notification
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "Deadline soon", got.Title)
	assert.Equal(t, user, got.UserID)
}
