package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the request-scoped view of a verified session token.
type SessionObject struct {
	UserID         string      `json:"user_id,omitempty"`
	Email          string      `json:"email,omitempty"`
	Role           AccountRole `json:"role,omitempty"`
	Issuer         string      `json:"issuer,omitempty"`
	IssuedAt       *time.Time  `json:"issued_at,omitempty"`
	ExpirationDate *time.Time  `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetRole() AccountRole {
	if _, valid := ParseRole(s.Role); !valid {
		return ""
	}
	return s.Role
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s role=%s iss=%s iat=%s",
		s.UserID,
		s.Role,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from verified claims.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	issuer := claims.Subject()
	if jwtClaims, ok := claims.(*JWTClaims); ok && jwtClaims.RegisteredClaims.Issuer != "" {
		issuer = jwtClaims.RegisteredClaims.Issuer
	}

	return &SessionObject{
		UserID:         claims.UserID(),
		Email:          claims.Email(),
		Role:           claims.Role(),
		Issuer:         issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
