package middleware

import (
	"errors"
	"strings"

	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/internal/services"
	"github.com/campuslink/alumninet/internal/utils"
	"github.com/campuslink/alumninet/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextMember = "current_member"

// AuthRequired verifies the bearer identity assertion and resolves it
// to a member record. Resolution succeeding only establishes WHO the
// caller is; whether they are admitted is a separate gate
// (ActiveMemberRequired).
func AuthRequired(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		assertion, err := utils.ParseAssertion(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired identity assertion")
			c.Abort()
			return
		}

		member, err := identity.Resolve(assertion)
		if err != nil {
			if errors.Is(err, services.ErrIdentityConflict) {
				response.Error(c, response.NewConflict("identity is bound to a different account"))
			} else {
				response.Error(c, response.NewUnavailable("identity resolution failed"))
			}
			c.Abort()
			return
		}

		c.Set(ContextMember, member)
		c.Next()
	}
}

// ActiveMemberRequired enforces the approval gate: a resolved identity
// whose record is not approved is unauthorized for member-only
// features, regardless of who they are.
func ActiveMemberRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		member := GetMember(c)
		if member == nil || !member.IsActive() {
			response.Forbidden(c, "membership not approved")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired restricts a route to approved admins.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		member := GetMember(c)
		if member == nil || !member.IsAdmin() || !member.IsActive() {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetMember returns the resolved member for the current request, or nil.
func GetMember(c *gin.Context) *models.Member {
	if v, exists := c.Get(ContextMember); exists {
		if m, ok := v.(*models.Member); ok {
			return m
		}
	}
	return nil
}
