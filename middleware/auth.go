package middleware

import (
	"net/http"

	"github.com/HaianCao/library-management-system/auth"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/gin-gonic/gin"
)

// Auth authenticates the request from the session cookie. It verifies the
// token signature, checks the session record (refreshing expired federated
// sessions in place), and stores the resolved identity in the context.
// Role and ownership decisions are left to the authz guard in handlers.
func Auth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(auth.SessionCookieName)
		if err != nil || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := auth.ParseSessionToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		session, user, err := svc.VerifySession(claims.SessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}

		if claims.Subject != session.UserID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session does not belong to user"})
			c.Abort()
			return
		}

		identity := authz.Identity{ID: user.ID, Role: user.Role}
		if user.Username != nil {
			identity.Username = *user.Username
		}

		authz.SetIdentity(c, identity)
		c.Set("sessionId", session.ID)
		c.Next()
	}
}
