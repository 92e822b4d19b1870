package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/config"
	"github.com/HaianCao/library-management-system/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionDuration is the absolute session lifetime from issuance.
const SessionDuration = 7 * 24 * time.Hour

// TokenClaims represents the signed claims carried in the session cookie.
// The session row in the database is authoritative for expiry; the token's
// own expiry mirrors it at issuance time.
type TokenClaims struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

var jwtKey []byte

// InitJWTKey initializes the signing key for session tokens.
func InitJWTKey(secret string) {
	jwtKey = []byte(secret)
	if len(jwtKey) == 0 {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

// GetJWTKey returns the JWT key
func GetJWTKey() []byte {
	return jwtKey
}

// Service implements authentication: local credential verification, the
// out-of-band administrator identity, registration, and session lifecycle.
type Service struct {
	db        *gorm.DB
	cfg       *config.Config
	refresher TokenRefresher
}

// NewService creates the auth service. refresher may be nil when no
// federated provider is configured.
func NewService(db *gorm.DB, cfg *config.Config, refresher TokenRefresher) *Service {
	return &Service{db: db, cfg: cfg, refresher: refresher}
}

// Authenticate verifies a username/password pair. The configured
// administrator identity is checked first; otherwise the credential store is
// consulted by case-insensitive username. Every failure mode collapses into
// the same generic error so callers cannot tell which factor was wrong.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	if strings.EqualFold(username, s.cfg.AdminUsername) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1 {
			return s.upsertAdmin()
		}
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	var user models.User
	err := s.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Error querying user %q: %v", username, err)
		}
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if user.PasswordHash == nil {
		// Federated account with no local password.
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return &user, nil
}

// upsertAdmin makes sure the fixed administrator user record exists and
// carries the admin role, then returns it.
func (s *Service) upsertAdmin() (*models.User, error) {
	var user models.User
	err := s.db.Where("LOWER(username) = LOWER(?)", s.cfg.AdminUsername).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, hashErr
		}
		username := s.cfg.AdminUsername
		passwordHash := string(hash)
		user = models.User{
			ID:           uuid.NewString(),
			Username:     &username,
			PasswordHash: &passwordHash,
			Email:        s.cfg.AdminEmail,
			FirstName:    "Library",
			LastName:     "Admin",
			Role:         models.RoleAdmin,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if user.Role != models.RoleAdmin {
		if err := s.db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
	}
	return &user, nil
}

// RegisterRequest carries a local registration.
type RegisterRequest struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// Register creates a local user with the default user role. The username
// must be unique case-insensitively; the storage-layer unique index backs
// the pre-check so a racing insert still fails.
func (s *Service) Register(req RegisterRequest) (*models.User, error) {
	var existing models.User
	err := s.db.Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("User with this username or email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %v", err)
	}

	username := req.Username
	passwordHash := string(hash)
	user := models.User{
		ID:           uuid.NewString(),
		Username:     &username,
		PasswordHash: &passwordHash,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// The unique index catches the check-then-insert race.
		if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, apperr.Conflict("User with this username or email already exists")
		}
		return nil, err
	}
	return &user, nil
}

// UpsertFederated finds or creates the user for a federated identity,
// matched by email. Federated users carry no username and no password hash.
func (s *Service) UpsertFederated(info *UserInfo) (*models.User, error) {
	var user models.User
	err := s.db.Where("LOWER(email) = LOWER(?)", info.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:        uuid.NewString(),
			Email:     info.Email,
			FirstName: info.FirstName,
			LastName:  info.LastName,
			Role:      models.RoleUser,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if info.FirstName != "" || info.LastName != "" {
		updates := map[string]interface{}{"first_name": info.FirstName, "last_name": info.LastName}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
		user.FirstName = info.FirstName
		user.LastName = info.LastName
	}
	return &user, nil
}

// CreateSession persists a session record for the user and returns it with
// the signed token to be set as the cookie. tokens is nil for local logins.
func (s *Service) CreateSession(user *models.User, provider string, tokens *ProviderTokens) (*models.Session, string, error) {
	session := models.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Provider:     provider,
		ExpiresAt:    time.Now().Add(SessionDuration),
		LastActivity: time.Now(),
	}
	if tokens != nil {
		session.AccessToken = tokens.AccessToken
		session.RefreshToken = tokens.RefreshToken
		session.TokenExpiresAt = tokens.ExpiresAt
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, "", fmt.Errorf("error creating session: %v", err)
	}

	token, err := generateSessionToken(user, &session)
	if err != nil {
		s.db.Delete(&session)
		return nil, "", err
	}
	return &session, token, nil
}

// VerifySession checks that the session is still valid and returns it with
// its user. An expired federated session with a refresh token is refreshed
// in place; an expired local session, or a failed refresh, destroys the
// session and forces re-authentication.
func (s *Service) VerifySession(sessionID string) (*models.Session, *models.User, error) {
	var session models.Session
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Unauthorized("Session not found")
		}
		return nil, nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if session.Provider != "local" && session.RefreshToken != "" && s.refresher != nil {
			if err := s.refreshSession(&session); err != nil {
				s.db.Delete(&session)
				return nil, nil, apperr.Unauthorized("Session expired")
			}
		} else {
			s.db.Delete(&session)
			return nil, nil, apperr.Unauthorized("Session expired")
		}
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, nil, apperr.Unauthorized("Session user no longer exists")
	}

	s.db.Model(&session).Update("last_activity", time.Now())
	return &session, &user, nil
}

// refreshSession exchanges the stored refresh token and updates the session
// row in place: new provider tokens and a fresh absolute expiry.
func (s *Service) refreshSession(session *models.Session) error {
	tokens, err := s.refresher.Refresh(session.RefreshToken)
	if err != nil {
		log.Printf("Token refresh failed for session %s: %v", session.ID, err)
		return err
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		// Some providers only rotate refresh tokens occasionally.
		refreshToken = session.RefreshToken
	}

	updates := map[string]interface{}{
		"access_token":     tokens.AccessToken,
		"refresh_token":    refreshToken,
		"token_expires_at": tokens.ExpiresAt,
		"expires_at":       time.Now().Add(SessionDuration),
	}
	if err := s.db.Model(session).Updates(updates).Error; err != nil {
		return err
	}
	session.AccessToken = tokens.AccessToken
	session.RefreshToken = refreshToken
	session.TokenExpiresAt = tokens.ExpiresAt
	session.ExpiresAt = time.Now().Add(SessionDuration)
	return nil
}

// Logout destroys the session. A terminated session is never reusable.
func (s *Service) Logout(sessionID string) error {
	return s.db.Delete(&models.Session{}, "id = ?", sessionID).Error
}

// generateSessionToken signs the identity claims for the cookie.
func generateSessionToken(user *models.User, session *models.Session) (string, error) {
	claims := &TokenClaims{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if user.Username != nil {
		claims.Username = *user.Username
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ParseSessionToken verifies the token signature and returns its claims.
// Claim expiry is not validated here: the session row is authoritative, and
// a federated session may have been refreshed past the token's own expiry.
func ParseSessionToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}
