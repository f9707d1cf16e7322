package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKeyUserID is the gin context key holding the authenticated user id.
const ContextKeyUserID = "user_id"

var (
	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("jwt secret is empty")
	errNoSubject   = errors.New("token has no subject")
)

// Authenticator validates HS256 bearer tokens issued by the account service.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator refuses an empty secret: HS256 accepts a zero-length key,
// so anyone could mint valid tokens.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// UserID parses the token and returns its subject.
func (a *Authenticator) UserID(tokenStr string) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", ErrEmptySecret
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			abortFail(c, http.StatusUnauthorized, ErrTokenRequired)
			return
		}
		userID, err := auth.UserID(tokenStr)
		if err != nil {
			abortFail(c, http.StatusUnauthorized, ErrTokenInvalid)
			return
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
