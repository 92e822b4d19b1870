package auth

import (
	"net/http"
	"time"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/config"
	"github.com/HaianCao/library-management-system/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "library_session"

// Handler serves the authentication endpoints.
type Handler struct {
	db   *gorm.DB
	svc  *Service
	cfg  *config.Config
	oidc *OIDCClient
}

// NewHandler creates the auth handler. oidc is nil when no federated
// provider is configured.
func NewHandler(db *gorm.DB, svc *Service, cfg *config.Config, oidc *OIDCClient) *Handler {
	return &Handler{db: db, svc: svc, cfg: cfg, oidc: oidc}
}

// userView is the identity subset returned to clients.
func userView(user *models.User) gin.H {
	view := gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"role":      user.Role,
	}
	if user.Username != nil {
		view["username"] = *user.Username
	}
	return view
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(SessionDuration.Seconds()), "/", "", h.cfg.IsProduction(), true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
}

// Login godoc
//
//	@Summary		Log in with local credentials
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	types.SuccessResponse	"Session cookie set"
//	@Failure		401	{object}	types.ErrorResponse		"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var credentials struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		apperr.Respond(c, apperr.Invalid("Username and password are required"))
		return
	}

	user, err := h.svc.Authenticate(credentials.Username, credentials.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	_, token, err := h.svc.CreateSession(user, "local", nil)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	h.setSessionCookie(c, token)

	activity.Record(h.db, user.ID, "user_login", "User logged in", "user", user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userView(user),
	})
}

// Register godoc
//
//	@Summary		Register a new local user
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	types.SuccessResponse	"User created, session cookie set"
//	@Failure		400	{object}	types.ErrorResponse		"Validation failure"
//	@Failure		409	{object}	types.ErrorResponse		"Duplicate username or email"
//	@Router			/api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var body struct {
		Username        string `json:"username" binding:"required,min=3,max=64"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
		Email           string `json:"email" binding:"required,email"`
		FirstName       string `json:"firstName" binding:"required"`
		LastName        string `json:"lastName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid(err.Error()))
		return
	}
	if body.Password != body.ConfirmPassword {
		apperr.Respond(c, apperr.InvalidFields("Validation failed", map[string]string{
			"confirmPassword": "Passwords do not match",
		}))
		return
	}

	user, err := h.svc.Register(RegisterRequest{
		Username:  body.Username,
		Password:  body.Password,
		Email:     body.Email,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	_, token, err := h.svc.CreateSession(user, "local", nil)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	h.setSessionCookie(c, token)

	activity.Record(h.db, user.ID, "user_registered", "New user registered", "user", user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userView(user),
	})
}

// FederatedLogin godoc
//
//	@Summary		Log in with a federated identity provider token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	types.SuccessResponse	"Session cookie set"
//	@Failure		401	{object}	types.ErrorResponse		"Provider rejected the token"
//	@Router			/api/auth/federated [post]
func (h *Handler) FederatedLogin(c *gin.Context) {
	if h.oidc == nil {
		apperr.Respond(c, apperr.NotFound("Federated login is not configured"))
		return
	}

	var body struct {
		AccessToken  string `json:"accessToken" binding:"required"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int64  `json:"expiresIn"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid("accessToken is required"))
		return
	}

	info, err := h.oidc.Userinfo(body.AccessToken)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	user, err := h.svc.UpsertFederated(info)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	tokens := &ProviderTokens{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}
	if body.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
		tokens.ExpiresAt = &t
	}

	_, token, err := h.svc.CreateSession(user, h.cfg.OIDCProvider, tokens)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	h.setSessionCookie(c, token)

	activity.Record(h.db, user.ID, "user_login", "User logged in via "+h.cfg.OIDCProvider, "user", user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userView(user),
	})
}

// Logout godoc
//
//	@Summary		Log out and destroy the session
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	types.SuccessResponse
//	@Router			/api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	sessionID := c.GetString("sessionId")
	if sessionID != "" {
		if err := h.svc.Logout(sessionID); err != nil {
			apperr.Respond(c, err)
			return
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CurrentUser godoc
//
//	@Summary		Return the authenticated user's profile
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Router			/api/auth/user [get]
func (h *Handler) CurrentUser(c *gin.Context) {
	userID := c.GetString("userId")

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		apperr.Respond(c, apperr.Unauthorized("Session user no longer exists"))
		return
	}
	c.JSON(http.StatusOK, userView(&user))
}
