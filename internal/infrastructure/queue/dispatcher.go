package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/api/metrics"
	"github.com/mietgram/campus-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 15 * time.Second
)

// MailDispatcher delivers verification emails in the background. Jobs are
// sharded by recipient so mails to one address go out in order.
type MailDispatcher struct {
	workers []chan ports.VerificationMail
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan ports.VerificationMail, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.VerificationMail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *MailDispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands mail to the worker responsible for its recipient. When that
// worker's buffer is full the mail is dropped and logged rather than blocking
// the request.
func (d *MailDispatcher) Enqueue(mail ports.VerificationMail) {
	idx := d.shardIndex(mail.To)
	select {
	case d.workers[idx] <- mail:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.MailsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("to", mail.To).Int("worker_id", idx).Msg("mail queue full, dropping verification email")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.VerificationMail) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.send(ctx, id, mail)
		}
	}
}

func (d *MailDispatcher) send(ctx context.Context, id int, mail ports.VerificationMail) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := d.mailer.SendVerification(sendCtx, mail); err != nil {
		metrics.MailsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("to", mail.To).
			Int("worker_id", id).
			Msg("verification email failed")
		return
	}
	metrics.MailsTotal.WithLabelValues("sent").Inc()
}
