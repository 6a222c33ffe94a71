package usercontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Role is the gateway-authenticated caller role.
type Role string

const (
	RoleCustomer Role = "customer"
	RolePartner  Role = "partner"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated caller identity forwarded by the gateway.
type Principal struct {
	UserID    snowflake.ID
	PartnerID snowflake.ID
	Role      Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsPartner() bool {
	return p.Role == RolePartner
}

type contextKey struct{}

var principalKey contextKey

// WithPrincipal stores the caller identity on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller identity, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
