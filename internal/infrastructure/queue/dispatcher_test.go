package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mietgram/campus-api/internal/core/ports"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
	done chan struct{}
}

func (m *recordingMailer) SendVerification(_ context.Context, mail ports.VerificationMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail.Token)
	if m.done != nil && len(m.sent) == cap(m.done) {
		close(m.done)
	}
	if m.fail {
		return errors.New("smtp down")
	}
	return nil
}

func TestMailDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	mailer := &recordingMailer{done: make(chan struct{}, 3)}
	d := NewMailDispatcher(2, mailer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for _, tok := range []string{"t1", "t2", "t3"} {
		d.Enqueue(ports.VerificationMail{To: "rahul@mietjammu.in", Token: tok})
	}

	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("mails not delivered")
	}
	cancel()
	d.Wait()

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	assert.Equal(t, []string{"t1", "t2", "t3"}, mailer.sent)
}

func TestMailDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	mailer := &recordingMailer{fail: true, done: make(chan struct{}, 2)}
	d := NewMailDispatcher(1, mailer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.VerificationMail{To: "a@mietjammu.in", Token: "a"})
	d.Enqueue(ports.VerificationMail{To: "b@mietjammu.in", Token: "b"})

	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a failed send")
	}
}

func TestMailDispatcher_ShardIndexStable(t *testing.T) {
	d := NewMailDispatcher(8, &recordingMailer{}, zerolog.Nop())
	first := d.shardIndex("x@mietjammu.in")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, d.shardIndex("x@mietjammu.in"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}
