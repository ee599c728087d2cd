package utils // helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/digitalforms/formlink/internal/model"
)

// AccessTokenTTL is the fixed lifetime of every issued session token.
const AccessTokenTTL = 24 * time.Hour

// AccessToken represents a signed HS256 JWT along with its expiry.  The
// token is sent in the Authorization header of authenticated requests.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims are the verified claims extracted from a parsed token.
// They identify the user at issue time only; callers must still confirm
// the user exists and is active before trusting them.
type TokenClaims struct {
	UserID   uint64
	Username string
	Role     model.Role
	IssuedAt time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  Claims:
// subject (sub = user id), username, role, iat and exp.  The lifetime is
// always AccessTokenTTL.
func NewAccessToken(secret string, userID uint64, username string, role model.Role) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     string(role),
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

var errInvalidToken = errors.New("invalid token")

// ParseAccessToken verifies signature and expiry and returns the embedded
// claims.  Any malformed, mis-signed or expired token yields an error;
// the caller performs the live user lookup on top of this.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, errInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errInvalidToken
	}

	var out TokenClaims
	switch sub := claims["sub"].(type) {
	case float64:
		out.UserID = uint64(sub)
	case string:
		n, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return TokenClaims{}, errInvalidToken
		}
		out.UserID = n
	default:
		return TokenClaims{}, errInvalidToken
	}
	if out.UserID == 0 {
		return TokenClaims{}, errInvalidToken
	}
	if v, ok := claims["username"].(string); ok {
		out.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		out.Role = model.ParseRole(v)
	} else {
		out.Role = model.RoleAgent
	}
	if v, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	return out, nil
}
