package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

const (
	// PasswordCost is the bcrypt work factor; bcrypt salts every hash itself.
	PasswordCost    = 12
	verificationTTL = 24 * time.Hour
)

// AuthService implements registration, login and email verification.
type AuthService struct {
	repo     ports.IdentityRepository
	tokens   ports.TokenIssuer
	verify   ports.VerificationStore
	mail     ports.MailQueue
	log      zerolog.Logger
	hashCost int
}

// NewAuthService wires an AuthService. verify and mail may be nil, in which
// case no verification email is sent on registration.
func NewAuthService(
	repo ports.IdentityRepository,
	tokens ports.TokenIssuer,
	verify ports.VerificationStore,
	mail ports.MailQueue,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		verify:   verify,
		mail:     mail,
		log:      log,
		hashCost: PasswordCost,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeHandle(in.Email)
	username := domain.NormalizeHandle(in.Username)
	fullName := strings.TrimSpace(in.FullName)

	var problems []string
	if !domain.IsCampusEmail(email) {
		problems = append(problems, "email must be a valid MIET Jammu address")
	}
	if username == "" {
		problems = append(problems, "username is required")
	}
	if fullName == "" {
		problems = append(problems, "fullName is required")
	}
	if len(in.Password) < domain.MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}
	if len(in.Password) > domain.MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at most %d bytes", domain.MaxPasswordLength))
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	taken, err := s.repo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, domain.ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		ProfilePic:   domain.DefaultProfilePic,
		Role:         domain.RoleStudent,
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, created)
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("identity registered")

	return &ports.AuthResult{User: created, Token: token}, nil
}

// sendVerification stores a verification token and queues the email. Failures
// are logged and never fail the registration.
func (s *AuthService) sendVerification(ctx context.Context, u *domain.User) {
	if s.verify == nil || s.mail == nil {
		return
	}
	token := uuid.NewString()
	if err := s.verify.Save(ctx, token, u.ID, verificationTTL); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to store verification token")
		return
	}
	s.mail.Enqueue(ports.VerificationMail{To: u.Email, Name: u.FullName, Token: token})
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeHandle(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	// Checked only after the password matched so ban status does not leak.
	if user.Banned {
		return nil, domain.ErrAccountBanned
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if s.verify == nil || strings.TrimSpace(token) == "" {
		return domain.NewValidationError("invalid or expired verification token")
	}
	userID, err := s.verify.Consume(ctx, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if userID == "" {
		return domain.NewValidationError("invalid or expired verification token")
	}
	if err := s.repo.SetVerified(ctx, userID); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("email verified")
	return nil
}
