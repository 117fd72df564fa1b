package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"buildbid/internal/auth"
	"buildbid/internal/handler"
	"buildbid/internal/middleware"
	"buildbid/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(ctx context.Context, role model.Role, query string) ([]model.User, error) {
	args := m.Called(ctx, role, query)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

const testSecret = "test-secret"

func setupTest() (*gin.Engine, *MockUserRepository) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mockRepo := new(MockUserRepository)
	userHandler := handler.NewUserHandler(mockRepo, auth.NewTokenManager(testSecret, 24))

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.POST("/login/admin", userHandler.LoginAdmin)

	authed := r.Group("/", middleware.JWTAuthMiddleware(testSecret))
	authed.GET("/me", userHandler.Me)
	authed.PUT("/me", userHandler.UpdateMe)
	authed.GET("/contractors", userHandler.ListContractors)
	authed.GET("/contractors/:id", userHandler.GetContractor)
	return r, mockRepo
}

func postJSON(router http.Handler, path string, body any, token string) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	reqBody := handler.RegisterRequest{
		Name:     "Test User",
		Email:    "Test@Example.com",
		Password: "password123",
	}

	// Act
	resp := postJSON(router, "/register", reqBody, "")

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, reqBody.Name, response.User.Name)
	assert.Equal(t, "test@example.com", response.User.Email)
	assert.Equal(t, model.RoleContractor, response.User.Role)

	claims, err := auth.ParseToken(response.Token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, response.User.ID, claims.UserID)

	mockRepo.AssertExpectations(t)
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	router, mockRepo := setupTest()

	resp := postJSON(router, "/register", handler.RegisterRequest{
		Name:     "Sneaky",
		Email:    "sneaky@example.com",
		Password: "password123",
		Role:     model.RoleAdmin,
	}, "")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UserAlreadyExists(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	existingUser := &model.User{
		ID:             uuid.New(),
		Email:          "existing@example.com",
		HashedPassword: "hashed_password",
		Name:           "Existing User",
	}
	mockRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(existingUser, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Name:     "Test User",
		Email:    "existing@example.com",
		Password: "password123",
		Role:     model.RoleClient,
	}, "")

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "User with this email already exists", response["error"])

	mockRepo.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockRepo := setupTest()
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: hashed(t, "password123"),
		Name:           "Test User",
		Role:           model.RoleClient,
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{Email: "test@example.com", Password: "password123"}, "")

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, testUser.Name, response.User.Name)
	assert.Equal(t, testUser.ID.String(), response.User.ID)
	assert.Equal(t, model.RoleClient, response.User.Role)

	mockRepo.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router, mockRepo := setupTest()
	testUser := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: hashed(t, "correct_password"),
		Name:           "Test User",
	}
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(testUser, nil)

	resp := postJSON(router, "/login", handler.LoginRequest{Email: "test@example.com", Password: "wrong_password"}, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Invalid credentials", response["error"])
	mockRepo.AssertExpectations(t)
}

func TestLogin_UserNotFound(t *testing.T) {
	router, mockRepo := setupTest()
	mockRepo.On("FindByEmail", mock.Anything, "nonexistent@example.com").Return(nil, nil)

	resp := postJSON(router, "/login", handler.LoginRequest{Email: "nonexistent@example.com", Password: "password123"}, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestLoginAdmin_RejectsNonAdmin(t *testing.T) {
	router, mockRepo := setupTest()
	contractor := &model.User{
		ID:             uuid.New(),
		Email:          "sam@example.com",
		HashedPassword: hashed(t, "password123"),
		Name:           "Sam",
		Role:           model.RoleContractor,
	}
	mockRepo.On("FindByEmail", mock.Anything, "sam@example.com").Return(contractor, nil)

	resp := postJSON(router, "/login/admin", handler.LoginRequest{Email: "sam@example.com", Password: "password123"}, "")

	assert.Equal(t, http.StatusForbidden, resp.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Admin access required", response["error"])
}

func TestLoginAdmin_Success(t *testing.T) {
	router, mockRepo := setupTest()
	admin := &model.User{
		ID:             uuid.New(),
		Email:          "boss@example.com",
		HashedPassword: hashed(t, "password123"),
		Name:           "Boss",
		Role:           model.RoleAdmin,
	}
	mockRepo.On("FindByEmail", mock.Anything, "boss@example.com").Return(admin, nil)

	resp := postJSON(router, "/login/admin", handler.LoginRequest{Email: "boss@example.com", Password: "password123"}, "")

	assert.Equal(t, http.StatusOK, resp.Code)
	var response handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, model.RoleAdmin, response.User.Role)
}

func TestMe_ReturnsProfileFromToken(t *testing.T) {
	router, mockRepo := setupTest()
	user := &model.User{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", Role: model.RoleContractor, Company: "Dana Builds"}
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	token, err := auth.NewTokenManager(testSecret, 1).GenerateToken(user.ID.String(), user.Role)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	var response handler.UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Dana Builds", response.Company)
}

func TestUpdateMe_KeepsUnsetFields(t *testing.T) {
	router, mockRepo := setupTest()
	user := &model.User{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", Role: model.RoleContractor, Phone: "555-0100"}
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	mockRepo.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Specialty == "Drywall" && u.Phone == "555-0100"
	})).Return(nil)

	token, _ := auth.NewTokenManager(testSecret, 1).GenerateToken(user.ID.String(), user.Role)
	body, _ := json.Marshal(map[string]any{"specialty": "Drywall"})
	req, _ := http.NewRequest(http.MethodPut, "/me", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestGetContractor_NotAContractor(t *testing.T) {
	router, mockRepo := setupTest()
	client := &model.User{ID: uuid.New(), Name: "Cleo", Role: model.RoleClient}
	mockRepo.On("GetByID", mock.Anything, client.ID).Return(client, nil)

	token, _ := auth.NewTokenManager(testSecret, 1).GenerateToken(uuid.NewString(), model.RoleAdmin)
	req, _ := http.NewRequest(http.MethodGet, "/contractors/"+client.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListContractors_PassesQuery(t *testing.T) {
	router, mockRepo := setupTest()
	mockRepo.On("ListByRole", mock.Anything, model.RoleContractor, "dana").
		Return([]model.User{{ID: uuid.New(), Name: "Dana", Role: model.RoleContractor}}, nil)

	token, _ := auth.NewTokenManager(testSecret, 1).GenerateToken(uuid.NewString(), model.RoleAdmin)
	req, _ := http.NewRequest(http.MethodGet, "/contractors?q=dana", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}
