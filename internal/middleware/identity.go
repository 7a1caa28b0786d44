package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"openchat/internal/identitytoken"
	"openchat/internal/transcript"
	"openchat/internal/utils"
	apperrors "openchat/pkg/errors"
)

const identityKey = "verified_identity"

// IdentityMiddleware verifies an optional bearer identity token. Requests
// without one pass through unverified; a bad token is rejected.
func IdentityMiddleware(issuer *identitytoken.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			utils.RespondError(c, apperrors.ErrInvalidToken)
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.Set(identityKey, transcript.Identity{ID: claims.UserID(), Nickname: claims.Nickname})
		c.Next()
	}
}

func VerifiedIdentity(c *gin.Context) (transcript.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return transcript.Identity{}, false
	}
	id, ok := v.(transcript.Identity)
	return id, ok
}

// IdentityPolicy decides who a mutating request acts as.
type IdentityPolicy struct {
	RequireSigned bool
}

// Resolve returns the verified identity when a token was presented.
// Otherwise the identity claimed in the request body is used, unless
// signed identities are required. A claimed id must be a uuid.
func (p IdentityPolicy) Resolve(c *gin.Context, claimed transcript.Identity) (transcript.Identity, error) {
	if id, ok := VerifiedIdentity(c); ok {
		return id, nil
	}
	if p.RequireSigned {
		return transcript.Identity{}, apperrors.ErrIdentityRequired
	}
	if claimed.ID == "" && claimed.Nickname == "" {
		return transcript.Identity{}, apperrors.ErrIdentityRequired
	}
	if claimed.ID != "" {
		if _, err := uuid.Parse(claimed.ID); err != nil {
			return transcript.Identity{}, fmt.Errorf("%w: user_id is not a user id", apperrors.ErrBadRequest)
		}
	}
	return claimed, nil
}
