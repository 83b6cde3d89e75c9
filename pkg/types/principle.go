// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package types

import "github.com/gin-gonic/gin"

// AuthPrincipleKey is the gin context key under which the authenticated
// principle is stored by the auth middleware.
const AuthPrincipleKey = "auth.principle"

// SimplePrinciple is the identity attached to an authenticated request.
// Identity itself is issued by the external auth service; this service only
// carries the stable user id and the bearer token forward.
type SimplePrinciple interface {
	UserID() string
	Token() string
}

// UserScope is the principle for an end-user bearer token.
type UserScope struct {
	UserId       string
	CurrentToken string
}

func (u *UserScope) UserID() string { return u.UserId }
func (u *UserScope) Token() string  { return u.CurrentToken }

// GetAuthPrinciple extracts the authenticated principle from a gin context.
func GetAuthPrinciple(c *gin.Context) (SimplePrinciple, bool) {
	v, ok := c.Get(AuthPrincipleKey)
	if !ok {
		return nil, false
	}
	principle, ok := v.(SimplePrinciple)
	return principle, ok
}
