package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/metrics"
	"github.com/selfmadecero/onevdr/internal/util"
	"gorm.io/gorm"
)

type ctxKey int

const userContextKey ctxKey = 0

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser returns the authenticated user stored on the context.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// LoginPayload carries login credentials
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the token response for a successful login
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUserPayload carries the fields for a new user account
type CreateUserPayload struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
	IsActive bool    `json:"is_active"`
	IsAdmin  bool    `json:"is_admin"`
}

// UpdateUserPayload carries a partial user update; nil fields are unchanged
type UpdateUserPayload struct {
	ID       uint    `json:"-"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

// UserResult is the API shape of a user account
type UserResult struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name,omitempty"`
	IsActive  bool    `json:"is_active"`
	IsAdmin   bool    `json:"is_admin"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at,omitempty"`
	LastLogin *string `json:"last_login,omitempty"`
}

// MessageResult is a plain confirmation body
type MessageResult struct {
	Message string `json:"message"`
}

// AuthService implements the auth service
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Authenticate validates a bearer token and loads the active user it names.
// The HTTP middleware calls this before any protected handler runs.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := util.ValidateToken(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", claims.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError("user not found")
		}
		return nil, NewInternalError("failed to load user", err)
	}

	if !user.IsActive {
		return nil, NewUnauthorizedError("user account is inactive")
	}

	return &user, nil
}

// Login implements the login method
func (s *AuthService) Login(ctx context.Context, p *LoginPayload) (*LoginResult, error) {
	// Trim whitespace from credentials
	username := strings.TrimSpace(p.Username)
	password := strings.TrimSpace(p.Password)

	log.Printf("[AUTH] Login attempt for user: %s", username)

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] Login failed: user '%s' not found", username)
			metrics.RecordAuthAttempt(false)
			return nil, NewUnauthorizedError("incorrect username or password")
		}
		log.Printf("[AUTH] Login failed: database error for user '%s': %v", username, err)
		metrics.RecordAuthAttempt(false)
		return nil, NewInternalError("failed to load user", err)
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("incorrect username or password")
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", username)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("user account is inactive")
	}

	// Update last login
	now := time.Now()
	user.LastLogin = &now
	s.db.WithContext(ctx).Save(&user)

	// Generate token
	token, err := util.GenerateToken(&user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", username, err)
		return nil, NewInternalError("failed to generate token", err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%d, admin=%v)", username, user.ID, user.IsAdmin)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// Logout implements the logout method. Tokens are stateless so this only
// confirms; clients drop the token.
func (s *AuthService) Logout(ctx context.Context) (*MessageResult, error) {
	if user, ok := CurrentUser(ctx); ok {
		log.Printf("[AUTH] Logout for user: %s (id=%d)", user.Username, user.ID)
	}
	return &MessageResult{Message: "Successfully logged out"}, nil
}

// Me implements the me method
func (s *AuthService) Me(ctx context.Context) (*UserResult, error) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return nil, NewUnauthorizedError("authentication required")
	}
	log.Printf("[AUTH] Me request for user: %s (id=%d)", user.Username, user.ID)
	return convertUserToResult(user), nil
}

// CreateUser implements the create user method
func (s *AuthService) CreateUser(ctx context.Context, p *CreateUserPayload) (*UserResult, error) {
	// Trim and normalize inputs
	username := strings.TrimSpace(p.Username)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	password := strings.TrimSpace(p.Password)

	log.Printf("[AUTH] CreateUser request: username=%s, email=%s", username, email)

	if username == "" || email == "" || password == "" {
		return nil, NewBadRequestError("username, email and password are required")
	}

	// Check if username exists
	var existingUser domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&existingUser).Error; err == nil {
		log.Printf("[AUTH] CreateUser failed: username '%s' already exists", username)
		return nil, NewBadRequestError("username already registered")
	}

	// Check if email exists
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Printf("[AUTH] CreateUser failed: email '%s' already exists", email)
		return nil, NewBadRequestError("email already registered")
	}

	// Hash password
	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		log.Printf("[AUTH] CreateUser failed: password hashing error: %v", err)
		return nil, NewInternalError("failed to hash password", err)
	}

	// Create user
	user := domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       p.IsActive,
		IsAdmin:        p.IsAdmin,
	}
	if p.FullName != nil {
		fullName := strings.TrimSpace(*p.FullName)
		user.FullName = &fullName
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		log.Printf("[AUTH] CreateUser failed: database error: %v", err)
		return nil, NewInternalError("failed to create user", err)
	}

	log.Printf("[AUTH] CreateUser successful: username=%s, id=%d", username, user.ID)
	return convertUserToResult(&user), nil
}

// ListUsers implements the list users method
func (s *AuthService) ListUsers(ctx context.Context, skip, limit int) ([]*UserResult, error) {
	log.Printf("[AUTH] ListUsers request: skip=%d, limit=%d", skip, limit)

	var users []domain.User
	query := s.db.WithContext(ctx).Order("created_at DESC")

	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	} else {
		query = query.Limit(100)
	}

	if err := query.Find(&users).Error; err != nil {
		log.Printf("[AUTH] ListUsers failed: database error: %v", err)
		return nil, NewInternalError("failed to list users", err)
	}

	results := make([]*UserResult, len(users))
	for i, user := range users {
		results[i] = convertUserToResult(&user)
	}

	log.Printf("[AUTH] ListUsers successful: returned %d users", len(results))
	return results, nil
}

// GetUser implements the get user method
func (s *AuthService) GetUser(ctx context.Context, id uint) (*UserResult, error) {
	log.Printf("[AUTH] GetUser request: id=%d", id)

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] GetUser failed: user id=%d not found", id)
			return nil, NewNotFoundError("user not found")
		}
		log.Printf("[AUTH] GetUser failed: database error: %v", err)
		return nil, NewInternalError("failed to load user", err)
	}

	log.Printf("[AUTH] GetUser successful: id=%d, username=%s", user.ID, user.Username)
	return convertUserToResult(&user), nil
}

// UpdateUser implements the update user method
func (s *AuthService) UpdateUser(ctx context.Context, p *UpdateUserPayload) (*UserResult, error) {
	log.Printf("[AUTH] UpdateUser request: id=%d", p.ID)

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] UpdateUser failed: user id=%d not found", p.ID)
			return nil, NewNotFoundError("user not found")
		}
		log.Printf("[AUTH] UpdateUser failed: database error: %v", err)
		return nil, NewInternalError("failed to load user", err)
	}

	// Update fields (with input sanitization)
	if p.Username != nil {
		username := strings.TrimSpace(*p.Username)
		// Check if username is taken by another user
		var existingUser domain.User
		if err := s.db.WithContext(ctx).Where("username = ? AND id != ?", username, p.ID).First(&existingUser).Error; err == nil {
			log.Printf("[AUTH] UpdateUser failed: username '%s' already taken", username)
			return nil, NewBadRequestError("username already taken")
		}
		user.Username = username
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		// Check if email is taken by another user
		var existingUser domain.User
		if err := s.db.WithContext(ctx).Where("email = ? AND id != ?", email, p.ID).First(&existingUser).Error; err == nil {
			log.Printf("[AUTH] UpdateUser failed: email '%s' already taken", email)
			return nil, NewBadRequestError("email already taken")
		}
		user.Email = email
	}
	if p.FullName != nil {
		fullName := strings.TrimSpace(*p.FullName)
		user.FullName = &fullName
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}
	if p.IsAdmin != nil {
		user.IsAdmin = *p.IsAdmin
	}
	if p.Password != nil {
		password := strings.TrimSpace(*p.Password)
		hashedPassword, err := util.HashPassword(password)
		if err != nil {
			log.Printf("[AUTH] UpdateUser failed: password hashing error: %v", err)
			return nil, NewInternalError("failed to hash password", err)
		}
		user.HashedPassword = hashedPassword
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		log.Printf("[AUTH] UpdateUser failed: database error: %v", err)
		return nil, NewInternalError("failed to update user", err)
	}

	log.Printf("[AUTH] UpdateUser successful: id=%d, username=%s", user.ID, user.Username)
	return convertUserToResult(&user), nil
}

// DeleteUser implements the delete user method
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	currentUser, ok := CurrentUser(ctx)
	if !ok {
		return NewUnauthorizedError("authentication required")
	}
	log.Printf("[AUTH] DeleteUser request: id=%d by user=%s", id, currentUser.Username)

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] DeleteUser failed: user id=%d not found", id)
			return NewNotFoundError("user not found")
		}
		log.Printf("[AUTH] DeleteUser failed: database error: %v", err)
		return NewInternalError("failed to load user", err)
	}

	// Prevent self-deletion
	if user.ID == currentUser.ID {
		log.Printf("[AUTH] DeleteUser failed: user '%s' attempted self-deletion", currentUser.Username)
		return NewBadRequestError("cannot delete your own account")
	}

	if err := s.db.WithContext(ctx).Delete(&user).Error; err != nil {
		log.Printf("[AUTH] DeleteUser failed: database error: %v", err)
		return NewInternalError("failed to delete user", err)
	}

	log.Printf("[AUTH] DeleteUser successful: deleted user id=%d, username=%s", user.ID, user.Username)
	return nil
}

// Helper function to convert User model to UserResult
func convertUserToResult(user *domain.User) *UserResult {
	result := &UserResult{
		ID:        int(user.ID),
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}

	if user.FullName != nil {
		result.FullName = user.FullName
	}
	if user.UpdatedAt.After(user.CreatedAt) {
		updatedAt := user.UpdatedAt.Format(time.RFC3339)
		result.UpdatedAt = &updatedAt
	}
	if user.LastLogin != nil {
		lastLogin := user.LastLogin.Format(time.RFC3339)
		result.LastLogin = &lastLogin
	}

	return result
}
