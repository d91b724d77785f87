package ports

import (
	"context"
	"time"
)

// VerificationStore keeps short-lived email verification tokens.
type VerificationStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns the user id for token and deletes it. An unknown or
	// expired token returns ("", nil).
	Consume(ctx context.Context, token string) (string, error)
}

// VerificationMail is a single verification email to deliver.
type VerificationMail struct {
	To    string
	Name  string
	Token string
}

// MailQueue accepts verification emails for asynchronous delivery.
type MailQueue interface {
	Enqueue(mail VerificationMail)
}

// Mailer delivers a verification email synchronously.
type Mailer interface {
	SendVerification(ctx context.Context, mail VerificationMail) error
}

// CaptionGenerator produces a caption suggestion from a free-text prompt.
type CaptionGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CaptionService suggests captions, falling back to a fixed string.
type CaptionService interface {
	Suggest(ctx context.Context, prompt string) string
}

// ChatEvent is a real-time signal scoped to a chat room.
type ChatEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSubscription delivers events published to one room until closed.
type ChatSubscription interface {
	Events() <-chan ChatEvent
	Close() error
}

// ChatRelay fans chat events out to every subscriber of a room.
type ChatRelay interface {
	Publish(ctx context.Context, event ChatEvent) error
	Subscribe(ctx context.Context, chatID string) (ChatSubscription, error)
}
