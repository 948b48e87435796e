package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/launchpad/core"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the identity service; this API only verifies them.
type Claims struct {
	jwt.StandardClaims
	OrgOwnerID     string `json:"org_owner_id,omitempty"`    // owner of the learner's organization; defaults to Subject
	OrganizationID string `json:"organization_id,omitempty"` // learner's current organization
	IsAdmin        bool   `json:"is_admin,omitempty"`
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}
}

// NewClaims returns claims for the given learner, valid for ttl.
func NewClaims(conf *core.Config, userID string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   userID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	conf := newJWTConfig(secretKey)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(conf.SigningMethod), claims)

	ss, err := token.SignedString(conf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context, conf middleware.JWTConfig) (Claims, error) {
	if token, ok := ctx.Get(conf.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (c Claims) userID() string {
	return core.CleanString(c.Subject)
}

func (c Claims) ownerID() string {
	if id := core.CleanString(c.OrgOwnerID); id != "" {
		return id
	}
	return c.userID()
}

func (c Claims) actor() core.Actor {
	return core.Actor{UserID: c.userID(), OrgOwnerID: c.ownerID()}
}
