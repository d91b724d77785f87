// Package metrics defines the custom Prometheus metrics for the mietGram API.
// Metrics are registered with the default registry through promauto when the
// package is imported, and exposed by the router on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mietgram"

// ── Identity metrics ──────────────────────────────────────────────────────────

// IdentitiesRegisteredTotal counts accounts created through /auth/register.
var IdentitiesRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identities_registered_total",
		Help:      "Total number of identities registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "banned" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Post metrics ──────────────────────────────────────────────────────────────

// PostsCreatedTotal counts newly created posts.
// Label:
//   - media_type: "image", "video" or "reel"
var PostsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of posts created, by media type.",
	},
	[]string{"media_type"},
)

// LikesToggledTotal counts like toggles.
// Label:
//   - action: "like" or "unlike"
var LikesToggledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_toggled_total",
		Help:      "Total number of like toggles, by resulting action.",
	},
	[]string{"action"},
)

// FeedRequestDuration measures feed assembly latency.
var FeedRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_request_duration_seconds",
		Help:      "Duration of feed assembly, from request to serialised page.",
		Buckets:   prometheus.DefBuckets,
	},
)

// FeedPageSize observes how many posts each feed page returned.
var FeedPageSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_page_size",
		Help:      "Number of posts returned per feed page.",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatEventsRelayedTotal counts chat events published to the relay.
// Label:
//   - type: "newMessage" or "userTyping"
var ChatEventsRelayedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_events_relayed_total",
		Help:      "Total number of chat events relayed, by event type.",
	},
	[]string{"type"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailsTotal counts verification email outcomes.
// Label:
//   - result: "sent", "failed" or "dropped"
var MailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_emails_total",
		Help:      "Total number of verification emails, by delivery result.",
	},
	[]string{"result"},
)

// MailQueueDepth tracks pending verification emails per dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of verification emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
