package ports

import (
	"context"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Username string
	FullName string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	VerifyEmail(ctx context.Context, token string) error
}

// TokenIssuer signs and verifies bearer tokens carrying an identity id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Parse(token string) (string, error)
}
