package handler

import (
	"context"
	"net/http"
	"strings"

	"buildbid/internal/auth"
	"buildbid/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence the user handler needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role, query string) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
}

type UserHandler struct {
	repo   UserStore
	tokens *auth.TokenManager
}

func NewUserHandler(repo UserStore, tokens *auth.TokenManager) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens}
}

type RegisterRequest struct {
	Name            string     `json:"name" binding:"required,min=2"`
	Email           string     `json:"email" binding:"required,email"`
	Password        string     `json:"password" binding:"required,min=6"`
	Role            model.Role `json:"role"`
	Company         string     `json:"company"`
	Specialty       string     `json:"specialty"`
	YearsExperience int        `json:"years_experience" binding:"min=0"`
	Phone           string     `json:"phone"`
	OfficeAddress   string     `json:"office_address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            model.Role `json:"role"`
	Company         string     `json:"company,omitempty"`
	Specialty       string     `json:"specialty,omitempty"`
	YearsExperience int        `json:"years_experience,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	OfficeAddress   string     `json:"office_address,omitempty"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=2"`
	Company         *string `json:"company"`
	Specialty       *string `json:"specialty"`
	YearsExperience *int    `json:"years_experience" binding:"omitempty,min=0"`
	Phone           *string `json:"phone"`
	OfficeAddress   *string `json:"office_address"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:              u.ID.String(),
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Company:         u.Company,
		Specialty:       u.Specialty,
		YearsExperience: u.YearsExperience,
		Phone:           u.Phone,
		OfficeAddress:   u.OfficeAddress,
	}
}

func toUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out
}

// Register creates a contractor or client account and logs it in. Admin accounts are provisioned
// out of band.
// @Summary      Register
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "New account"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.Role == "" {
		req.Role = model.RoleContractor
	}
	if req.Role != model.RoleContractor && req.Role != model.RoleClient {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be contractor or client"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &model.User{
		ID:              uuid.New(),
		Name:            req.Name,
		Email:           req.Email,
		HashedPassword:  string(hash),
		Role:            req.Role,
		Company:         req.Company,
		Specialty:       req.Specialty,
		YearsExperience: req.YearsExperience,
		Phone:           req.Phone,
		OfficeAddress:   req.OfficeAddress,
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login authenticates any role.
// @Summary      Login
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} AuthResponse
// @Failure      401 {object} map[string]string
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	user, ok := h.authenticate(c)
	if !ok {
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// LoginAdmin authenticates and additionally requires the admin role.
// @Summary      Admin login
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} AuthResponse
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /login/admin [post]
func (h *UserHandler) LoginAdmin(c *gin.Context) {
	user, ok := h.authenticate(c)
	if !ok {
		return
	}
	if user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *UserHandler) authenticate(c *gin.Context) (*model.User, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return nil, false
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return nil, false
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return nil, false
	}
	return user, true
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(user.ID.String(), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: toUserResponse(user)})
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe edits the caller's profile. Email, password and role cannot change here.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Company != nil {
		user.Company = *req.Company
	}
	if req.Specialty != nil {
		user.Specialty = *req.Specialty
	}
	if req.YearsExperience != nil {
		user.YearsExperience = *req.YearsExperience
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.OfficeAddress != nil {
		user.OfficeAddress = *req.OfficeAddress
	}

	if err := h.repo.UpdateProfile(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) ListContractors(c *gin.Context) { h.listRole(c, model.RoleContractor) }
func (h *UserHandler) ListAdmins(c *gin.Context)      { h.listRole(c, model.RoleAdmin) }
func (h *UserHandler) ListClients(c *gin.Context)     { h.listRole(c, model.RoleClient) }

func (h *UserHandler) listRole(c *gin.Context, role model.Role) {
	users, err := h.repo.ListByRole(c.Request.Context(), role, c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, toUserResponses(users))
}

// GetContractor returns one contractor profile.
func (h *UserHandler) GetContractor(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "contractor")
	if !ok {
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || user.Role != model.RoleContractor {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contractor not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
