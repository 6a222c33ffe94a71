package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/scrapline/internal/observability/context"
	"github.com/smallbiznis/scrapline/internal/usercontext"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderPartnerID = "X-Partner-ID"
	HeaderUserRole  = "X-User-Role"
)

// Identity trusts the gateway-forwarded identity headers. Requests without
// X-User-ID stay anonymous; the services reject them where identity matters.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUser := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if rawUser == "" {
			c.Next()
			return
		}

		userID, err := snowflake.ParseString(rawUser)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal := usercontext.Principal{
			UserID: userID,
			Role:   parseRole(c.GetHeader(HeaderUserRole)),
		}

		if rawPartner := strings.TrimSpace(c.GetHeader(HeaderPartnerID)); rawPartner != "" {
			partnerID, err := snowflake.ParseString(rawPartner)
			if err != nil || partnerID == 0 {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			principal.PartnerID = partnerID
		}

		ctx := usercontext.WithPrincipal(c.Request.Context(), principal)
		ctx = obscontext.WithActor(ctx, string(principal.Role), principal.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseRole(raw string) usercontext.Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return usercontext.RoleAdmin
	case "partner":
		return usercontext.RolePartner
	default:
		return usercontext.RoleCustomer
	}
}

// RequireRole gates a route group on the caller role.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(role)] = struct{}{}
	}

	return func(c *gin.Context) {
		principal, ok := usercontext.PrincipalFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if _, ok := allowed[string(principal.Role)]; !ok {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
