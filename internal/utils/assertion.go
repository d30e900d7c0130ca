package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtSecret is the key shared with the upstream identity provider. The
// provider signs assertions; this service only verifies and reads them.
var (
	jwtSecret        []byte
	expectedIssuer   string
	expectedAudience string
)

func SetAssertionSecret(secret string) {
	jwtSecret = []byte(secret)
}

// SetAssertionExpectations pins the issuer and audience an assertion
// must carry. Empty values leave the corresponding claim unchecked.
func SetAssertionExpectations(issuer, audience string) {
	expectedIssuer = issuer
	expectedAudience = audience
}

// AssertionClaims is the JWT claim set carried by an identity assertion.
type AssertionClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// IdentityAssertion is the verified claim about who a caller is. It is
// ephemeral: it drives identity resolution and is never persisted.
type IdentityAssertion struct {
	SubjectID   string
	Email       string
	DisplayName string
	IssuedAt    time.Time
}

var (
	ErrAssertionInvalid    = errors.New("invalid identity assertion")
	ErrAssertionIncomplete = errors.New("identity assertion missing subject or email")
)

// ParseAssertion verifies token and extracts the identity assertion.
func ParseAssertion(token string) (*IdentityAssertion, error) {
	var opts []jwt.ParserOption
	if expectedIssuer != "" {
		opts = append(opts, jwt.WithIssuer(expectedIssuer))
	}
	if expectedAudience != "" {
		opts = append(opts, jwt.WithAudience(expectedAudience))
	}

	claims := &AssertionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAssertionInvalid
		}
		return jwtSecret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrAssertionInvalid
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrAssertionIncomplete
	}

	assertion := &IdentityAssertion{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}
	if claims.IssuedAt != nil {
		assertion.IssuedAt = claims.IssuedAt.Time
	}
	return assertion, nil
}

// SignAssertion produces an assertion token the way the identity
// provider would. Used by tests and local tooling.
func SignAssertion(subjectID, email, displayName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AssertionClaims{
		Email:       email,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if expectedIssuer != "" {
		claims.Issuer = expectedIssuer
	}
	if expectedAudience != "" {
		claims.Audience = jwt.ClaimStrings{expectedAudience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
