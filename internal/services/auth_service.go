package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the JWT payload. TenantID is empty for super admins.
type Claims struct {
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
	Type     string `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

type SignupInput struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"full_name"`
	Phone    *string   `json:"phone"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	// Signup registers a new applicant account under the given tenant.
	Signup(ctx context.Context, input *SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// ParseAccessToken validates an access token and returns the caller
	// identity. Used by the JWT middleware.
	ParseAccessToken(tokenString string) (common.Identity, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type authService struct {
	users   repositories.UserRepository
	tenants repositories.TenantRepository
	secret  []byte
}

func NewAuthService(users repositories.UserRepository, tenants repositories.TenantRepository, secret string) AuthService {
	return &authService{users: users, tenants: tenants, secret: []byte(secret)}
}

func (s *authService) Signup(ctx context.Context, input *SignupInput) (*models.User, error) {
	if input.Email == "" {
		return nil, &common.ValidationError{Field: "email", Message: "is required"}
	}
	if len(input.Password) < 8 {
		return nil, &common.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}
	if input.FullName == "" {
		return nil, &common.ValidationError{Field: "full_name", Message: "is required"}
	}
	if input.TenantID == uuid.Nil {
		return nil, &common.ValidationError{Field: "tenant_id", Message: "is required"}
	}

	tenant, err := s.tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, &common.ValidationError{Field: "tenant_id", Message: "unknown tenant"}
		}
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, &common.ValidationError{Field: "tenant_id", Message: "tenant is not accepting registrations"}
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, &common.ValidationError{Field: "email", Message: "is already registered"}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tenantID := tenant.ID
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Phone:        input.Phone,
		Role:         models.RoleApplicant,
		Status:       models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	// Re-read the user so revoked or demoted accounts lose access at the
	// next refresh.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrAccountDisabled
	}
	return s.issueTokens(user)
}

func (s *authService) ParseAccessToken(tokenString string) (common.Identity, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return common.Identity{}, err
	}
	if claims.Type != "access" {
		return common.Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return common.Identity{}, ErrInvalidToken
	}
	identity := common.Identity{UserID: userID, Role: claims.Role}
	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return common.Identity{}, ErrInvalidToken
		}
		identity.TenantID = tenantID
	}
	return identity, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *authService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.sign(user, "access", accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, "refresh", refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if user.TenantID != nil {
		claims.TenantID = user.TenantID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
