package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"buildbid/internal/auth"
	"buildbid/internal/client"
	"buildbid/internal/database"
	"buildbid/internal/handler"
	"buildbid/internal/middleware"
	"buildbid/internal/model"
	"buildbid/internal/notify"
	"buildbid/internal/repository"
	"buildbid/internal/workflow"
)

type fakeStorage struct {
	uploaded map[string][]byte
	fail     bool
}

func (s *fakeStorage) GenerateFileKey(projectID uuid.UUID, kind, fileName string) (string, error) {
	return fmt.Sprintf("projects/%s/%s/%s", projectID, kind, fileName), nil
}

func (s *fakeStorage) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error) {
	if s.fail {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.uploaded[key] = data
	return "https://files.test/" + key, nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, key string) error {
	delete(s.uploaded, key)
	return nil
}

func (s *fakeStorage) GetFileURL(key string) string { return "https://files.test/" + key }

var _ client.FileStorage = (*fakeStorage)(nil)

type apiFixture struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	tokens  *auth.TokenManager
	storage *fakeStorage

	admin, contractor, other, customer *model.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	logger := zap.NewNop()
	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	columns := repository.NewColumnRepository(db)
	tickets := repository.NewTicketRepository(db)
	comments := repository.NewCommentRepository(db)
	notifications := repository.NewNotificationRepository(db)
	subs := repository.NewPushSubscriptionRepository(db)

	hub := notify.NewHub(logger)
	t.Cleanup(hub.Close)
	dispatcher := notify.NewDispatcher(notifications, hub, logger)

	f := &apiFixture{
		t:       t,
		db:      db,
		tokens:  auth.NewTokenManager(testSecret, 1),
		storage: &fakeStorage{uploaded: map[string][]byte{}},
	}

	projectHandler := handler.NewProjectHandler(projects, f.storage, dispatcher, nil, logger)
	columnHandler := handler.NewColumnHandler(columns)
	ticketHandler := handler.NewTicketHandler(tickets, columns, dispatcher, logger)
	commentHandler := handler.NewCommentHandler(comments, tickets, projects, users, dispatcher, logger)
	notificationHandler := handler.NewNotificationHandler(dispatcher, hub, subs, logger)
	revenueHandler := handler.NewRevenueHandler(repository.NewRevenueRepository(db))

	r := gin.New()
	api := r.Group("/", middleware.JWTAuthMiddleware(testSecret))
	api.GET("/projects", projectHandler.List)
	api.POST("/projects", projectHandler.Create)
	api.GET("/projects/:id", projectHandler.Get)
	api.PATCH("/projects/:id/status", projectHandler.UpdateStatus)
	api.PATCH("/projects/:id/hold", projectHandler.UpdateHold)
	api.PATCH("/projects/:id/column", projectHandler.MoveToColumn)
	api.GET("/projects/:id/history", projectHandler.History)
	api.POST("/projects/:id/files/:kind", projectHandler.UploadFile)
	api.GET("/pipeline", projectHandler.Pipeline)
	api.POST("/columns", columnHandler.Create)
	api.DELETE("/columns/:id", columnHandler.Delete)
	api.GET("/tickets", ticketHandler.List)
	api.POST("/tickets", ticketHandler.Create)
	api.POST("/tickets/:id/move", ticketHandler.MoveTicket)
	api.POST("/tickets/:id/timer/start", ticketHandler.StartTimer)
	api.POST("/tickets/:id/timer/stop", ticketHandler.StopTimer)
	api.GET("/tickets/:id/comments", commentHandler.ListTicketComments)
	api.POST("/tickets/:id/comments", commentHandler.AddTicketComment)
	api.GET("/projects/:id/comments", commentHandler.ListProjectComments)
	api.POST("/projects/:id/comments", commentHandler.AddProjectComment)
	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	api.POST("/push/subscriptions", notificationHandler.RegisterPush)
	api.DELETE("/push/subscriptions/:token", notificationHandler.DeletePush)
	api.GET("/revenue", revenueHandler.Summary)
	f.router = r

	f.admin = f.seedUser("Avery", model.RoleAdmin)
	f.contractor = f.seedUser("Casey", model.RoleContractor)
	f.other = f.seedUser("Morgan", model.RoleContractor)
	f.customer = f.seedUser("Riley", model.RoleClient)
	return f
}

func (f *apiFixture) seedUser(name string, role model.Role) *model.User {
	u := &model.User{Name: name, Email: uuid.NewString()[:8] + "@example.com", HashedPassword: "x", Role: role}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *apiFixture) do(as *model.User, method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	token, err := f.tokens.GenerateToken(as.ID.String(), as.Role)
	require.NoError(f.t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func (f *apiFixture) createProject(name string) model.Project {
	resp := f.do(f.admin, http.MethodPost, "/projects", map[string]any{
		"name":            name,
		"contractor_id":   f.contractor.ID.String(),
		"client_id":       f.customer.ID.String(),
		"valuation_cents": 250000,
		"status":          "won",
	})
	require.Equal(f.t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[model.Project](f.t, resp)
}

func TestProjectCreate_StartsAwaitingApprovalAndNotifies(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")

	assert.Equal(t, workflow.StatusAwaitingApproval, p.Status)

	resp := f.do(f.contractor, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	notes := decode[[]model.Notification](t, resp)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationProjectAssigned, notes[0].Type)

	resp = f.do(f.admin, http.MethodGet, "/notifications", nil)
	assert.Empty(t, decode[[]model.Notification](t, resp), "actor is not notified")
}

func TestProjectStatus_AdminTransitions(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")
	path := "/projects/" + p.ID.String() + "/status"

	resp := f.do(f.admin, http.MethodPatch, path, handler.StatusRequest{Status: "won"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "awaiting_approval")

	resp = f.do(f.admin, http.MethodPatch, path, handler.StatusRequest{Status: "shipped"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(f.admin, http.MethodPatch, path, handler.StatusRequest{Status: "awaiting_takeoff"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode[handler.StatusChangeResponse](t, resp)
	assert.Equal(t, workflow.StatusAwaitingTakeoff, out.Project.Status)
	require.NotNil(t, out.Change)
	assert.Equal(t, workflow.StatusAwaitingApproval, *out.Change.FromStatus)

	resp = f.do(f.admin, http.MethodGet, "/projects/"+p.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]model.StatusChange](t, resp), 2)

	resp = f.do(f.customer, http.MethodGet, "/notifications?unread=true", nil)
	notes := decode[[]model.Notification](t, resp)
	require.Len(t, notes, 2)
	kinds := []model.NotificationType{notes[0].Type, notes[1].Type}
	assert.ElementsMatch(t, []model.NotificationType{model.NotificationProjectAssigned, model.NotificationStatusChanged}, kinds)
}

func TestProjectStatus_ContractorRestrictions(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")
	path := "/projects/" + p.ID.String() + "/status"
	require.Equal(t, http.StatusOK, f.do(f.admin, http.MethodPatch, path, handler.StatusRequest{Status: "awaiting_takeoff"}).Code)

	resp := f.do(f.contractor, http.MethodPatch, path, handler.StatusRequest{Status: "bid_recieved"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(f.other, http.MethodPatch, path, handler.StatusRequest{Status: "takeoff_in_progress"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "not assigned to you", decode[map[string]string](t, resp)["error"])

	resp = f.do(f.contractor, http.MethodPatch, path, handler.StatusRequest{Status: "takeoff_in_progress"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = f.do(f.customer, http.MethodPatch, path, handler.StatusRequest{Status: "takeoff_complete"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestProjectHoldAndColumnMove(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")
	base := "/projects/" + p.ID.String()

	resp := f.do(f.admin, http.MethodPatch, base+"/hold", handler.HoldRequest{Hold: "paused"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(f.admin, http.MethodPatch, base+"/hold", handler.HoldRequest{Hold: "negotiating"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, workflow.ColumnNegotiation, decode[handler.StatusChangeResponse](t, resp).Project.Column())

	resp = f.do(f.admin, http.MethodPatch, base+"/column", handler.ColumnMoveRequest{Column: "prospecting"})
	require.Equal(t, http.StatusOK, resp.Code)
	moved := decode[handler.StatusChangeResponse](t, resp).Project
	assert.Equal(t, workflow.HoldAwaitingApproval, moved.Hold)
	assert.Equal(t, workflow.ColumnProspecting, moved.Column())

	resp = f.do(f.admin, http.MethodPatch, base+"/column", handler.ColumnMoveRequest{Column: "won"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = f.do(f.admin, http.MethodGet, "/pipeline", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	lanes := decode[[]model.PipelineLane](t, resp)
	require.Len(t, lanes, len(workflow.Columns()))
	assert.Len(t, lanes[0].Projects, 1)
}

func TestProjectColumnMove_ClosedProjectStaysInItsLane(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")
	base := "/projects/" + p.ID.String()
	for _, s := range []string{"awaiting_takeoff", "takeoff_in_progress", "takeoff_complete", "bid_recieved", "bid_submitted", "won"} {
		resp := f.do(f.admin, http.MethodPatch, base+"/status", handler.StatusRequest{Status: s})
		require.Equal(t, http.StatusOK, resp.Code, "-> %s: %s", s, resp.Body.String())
	}

	resp := f.do(f.admin, http.MethodPatch, base+"/column", handler.ColumnMoveRequest{Column: "prospecting"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "won")

	resp = f.do(f.admin, http.MethodPatch, base+"/hold", handler.HoldRequest{Hold: "negotiating"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = f.do(f.admin, http.MethodPatch, base+"/column", handler.ColumnMoveRequest{Column: "won"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(f.admin, http.MethodGet, "/pipeline", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	for _, lane := range decode[[]model.PipelineLane](t, resp) {
		if lane.Column == workflow.ColumnWon {
			require.Len(t, lane.Projects, 1)
			assert.Equal(t, workflow.StatusWon, lane.Projects[0].Status)
		} else {
			assert.Empty(t, lane.Projects, "lane %s", lane.Column)
		}
	}
}

func TestProjectGet_HiddenFromUnrelatedUsers(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")

	assert.Equal(t, http.StatusOK, f.do(f.customer, http.MethodGet, "/projects/"+p.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(f.other, http.MethodGet, "/projects/"+p.ID.String(), nil).Code)

	resp := f.do(f.other, http.MethodGet, "/projects", nil)
	assert.Empty(t, decode[[]model.Project](t, resp))
}

func uploadRequest(t *testing.T, path, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "plans.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestProjectUploadFile(t *testing.T) {
	f := newAPIFixture(t)
	p := f.createProject("Harbor Tower")
	token, _ := f.tokens.GenerateToken(f.admin.ID.String(), f.admin.Role)

	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, uploadRequest(t, "/projects/"+p.ID.String()+"/files/blueprints", token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[model.Project](t, resp)
	assert.Contains(t, updated.BlueprintsURL, "https://files.test/projects/")
	assert.Len(t, f.storage.uploaded, 1)

	resp = httptest.NewRecorder()
	f.router.ServeHTTP(resp, uploadRequest(t, "/projects/"+p.ID.String()+"/files/invoices", token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	f.storage.fail = true
	resp = httptest.NewRecorder()
	f.router.ServeHTTP(resp, uploadRequest(t, "/projects/"+p.ID.String()+"/files/takeoff", token))
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestTickets_CreateRequiresColumnsAndValidType(t *testing.T) {
	f := newAPIFixture(t)

	internal := map[string]any{"title": "Order plans", "type": "internal"}
	assert.Equal(t, http.StatusConflict, f.do(f.admin, http.MethodPost, "/tickets", internal).Code)

	resp := f.do(f.admin, http.MethodPost, "/columns", map[string]any{"title": "To do"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	todo := decode[handler.ColumnResponse](t, resp)

	bad := map[string]any{"title": "Order plans", "type": "internal", "task_type": "price_negotiation"}
	assert.Equal(t, http.StatusBadRequest, f.do(f.admin, http.MethodPost, "/tickets", bad).Code)

	missing := map[string]any{"title": "Verify quote", "type": "contractor"}
	assert.Equal(t, http.StatusBadRequest, f.do(f.admin, http.MethodPost, "/tickets", missing).Code)

	resp = f.do(f.admin, http.MethodPost, "/tickets", internal)
	require.Equal(t, http.StatusCreated, resp.Code)
	ticket := decode[handler.TicketResponse](t, resp)
	assert.Equal(t, todo.ID, ticket.ColumnID)
	assert.Equal(t, 0, ticket.Position)

	resp = f.do(f.admin, http.MethodDelete, "/columns/"+todo.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func (f *apiFixture) contractorTicket(columnID string) handler.TicketResponse {
	resp := f.do(f.admin, http.MethodPost, "/tickets", map[string]any{
		"title":         "Verify lumber quote",
		"type":          "contractor",
		"task_type":     "quote_verification",
		"contractor_id": f.contractor.ID.String(),
		"column_id":     columnID,
	})
	require.Equal(f.t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[handler.TicketResponse](f.t, resp)
}

func TestTickets_ScopingMoveAndTimer(t *testing.T) {
	f := newAPIFixture(t)
	todo := decode[handler.ColumnResponse](t, f.do(f.admin, http.MethodPost, "/columns", map[string]any{"title": "To do"}))
	done := decode[handler.ColumnResponse](t, f.do(f.admin, http.MethodPost, "/columns", map[string]any{"title": "Done"}))
	assert.Equal(t, 1, done.Position)

	ticket := f.contractorTicket(todo.ID)

	assert.Len(t, decode[[]handler.TicketResponse](t, f.do(f.contractor, http.MethodGet, "/tickets", nil)), 1)
	assert.Empty(t, decode[[]handler.TicketResponse](t, f.do(f.other, http.MethodGet, "/tickets", nil)))
	assert.Len(t, decode[[]handler.TicketResponse](t, f.do(f.admin, http.MethodGet, "/tickets?column_id="+todo.ID, nil)), 1)

	resp := f.do(f.admin, http.MethodPost, "/tickets/"+ticket.ID+"/move", handler.TicketMoveRequest{ColumnID: done.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, done.ID, decode[handler.TicketResponse](t, resp).ColumnID)

	timer := "/tickets/" + ticket.ID + "/timer/"
	assert.Equal(t, http.StatusConflict, f.do(f.contractor, http.MethodPost, timer+"stop", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(f.other, http.MethodPost, timer+"start", nil).Code)

	resp = f.do(f.contractor, http.MethodPost, timer+"start", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.NotNil(t, decode[handler.TicketResponse](t, resp).TimerStartedAt)

	assert.Equal(t, http.StatusConflict, f.do(f.contractor, http.MethodPost, timer+"start", nil).Code)

	resp = f.do(f.contractor, http.MethodPost, timer+"stop", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, decode[handler.TicketResponse](t, resp).TimerStartedAt)

	notes := decode[[]model.Notification](t, f.do(f.contractor, http.MethodGet, "/notifications", nil))
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationTicketAssigned, notes[0].Type)
}

func TestComments_TicketAndProject(t *testing.T) {
	f := newAPIFixture(t)
	todo := decode[handler.ColumnResponse](t, f.do(f.admin, http.MethodPost, "/columns", map[string]any{"title": "To do"}))
	ticket := f.contractorTicket(todo.ID)

	resp := f.do(f.contractor, http.MethodPost, "/tickets/"+ticket.ID+"/comments", handler.CommentRequest{Content: "Quote looks high"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	comment := decode[model.Comment](t, resp)
	assert.Equal(t, "Casey", comment.AuthorName)
	assert.Equal(t, model.EntityTicket, comment.EntityType)

	resp = f.do(f.admin, http.MethodGet, "/tickets/"+ticket.ID+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]model.Comment](t, resp), 1)

	assert.Equal(t, http.StatusNotFound, f.do(f.customer, http.MethodGet, "/tickets/"+ticket.ID+"/comments", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(f.contractor, http.MethodPost, "/tickets/"+ticket.ID+"/comments", handler.CommentRequest{Content: "   "}).Code)

	p := f.createProject("Harbor Tower")
	resp = f.do(f.customer, http.MethodPost, "/projects/"+p.ID.String()+"/comments", handler.CommentRequest{Content: "When is takeoff due?"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = f.do(f.contractor, http.MethodGet, "/projects/"+p.ID.String()+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	comments := decode[[]model.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "Riley", comments[0].AuthorName)

	assert.Equal(t, http.StatusNotFound, f.do(f.other, http.MethodGet, "/projects/"+p.ID.String()+"/comments", nil).Code)
}

func TestNotifications_ReadFlowAndPushTokens(t *testing.T) {
	f := newAPIFixture(t)
	f.createProject("Harbor Tower")
	f.createProject("Elm Street Lofts")

	count := decode[handler.UnreadCountResponse](t, f.do(f.contractor, http.MethodGet, "/notifications/unread-count", nil))
	assert.Equal(t, int64(2), count.Unread)

	notes := decode[[]model.Notification](t, f.do(f.contractor, http.MethodGet, "/notifications?limit=1", nil))
	require.Len(t, notes, 1)

	assert.Equal(t, http.StatusNotFound, f.do(f.customer, http.MethodPost, "/notifications/"+notes[0].ID.String()+"/read", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(f.contractor, http.MethodPost, "/notifications/"+notes[0].ID.String()+"/read", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(f.contractor, http.MethodGet, "/notifications?limit=zero", nil).Code)

	resp := f.do(f.contractor, http.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, decode[map[string]int64](t, resp)["updated"])

	assert.Equal(t, http.StatusNoContent, f.do(f.contractor, http.MethodPost, "/push/subscriptions", handler.PushSubscriptionRequest{Token: "device-1", Platform: "web"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(f.contractor, http.MethodPost, "/push/subscriptions", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(f.customer, http.MethodDelete, "/push/subscriptions/device-1", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(f.contractor, http.MethodDelete, "/push/subscriptions/device-1", nil).Code)
}

func TestRevenue_Summary(t *testing.T) {
	f := newAPIFixture(t)
	f.createProject("Harbor Tower")

	resp := f.do(f.admin, http.MethodGet, "/revenue", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	summary := decode[model.RevenueSummary](t, resp)
	assert.Equal(t, int64(250000), summary.PipelineCents)
	assert.Zero(t, summary.WonCents)
	assert.Equal(t, 1, summary.ProjectCount)
}
