package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/catalog"
	"github.com/example/shopdesk/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	identityKey = "shopdesk.identity"
	sessionKey  = "shopdesk.session"

	sessionIDValue = "sid"
)

var accessDenied = gin.H{"error": "403 Access denied!"}

// identify resolves the bearer token, if any, into the request identity.
// Requests without a token proceed anonymously.
func (g *Gateway) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.svc.Tokens.Identify(c.GetHeader("Authorization"))
		if err != nil {
			g.fail(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

func (g *Gateway) authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity(c).Anonymous() {
			g.fail(c, models.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

// require runs the capability check before the handler.
func (g *Gateway) require(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.svc.Authorizer.Authorize(c.Request.Context(), identity(c), capability); err != nil {
			g.fail(c, err)
			return
		}
		c.Next()
	}
}

// session makes sure the request carries a session cookie and exposes its
// id. The basket itself lives server side, keyed by that id.
func (g *Gateway) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := g.sessions.Get(c.Request, g.config.Session.CookieName)
		if err != nil {
			g.logger.Debug("Replacing unreadable session cookie", zap.Error(err))
		}

		sid, _ := sess.Values[sessionIDValue].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sessionIDValue] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				g.fail(c, err)
				return
			}
		}

		c.Set(sessionKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func paramID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// fail writes the error response for err and aborts the chain.
func (g *Gateway) fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, models.ErrEmptyBasket):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, accessDenied)
	case models.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrPhotosDisabled):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	g.logger.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
}
