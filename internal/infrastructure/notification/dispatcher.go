package notification

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mejarc/agent-onboarding/internal/api/metrics"
	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

type jobKind string

const (
	jobKycUploaded           jobKind = "kyc_uploaded"
	jobRegistrationSubmitted jobKind = "registration_submitted"
	jobApproval              jobKind = "approval"
	jobRejection             jobKind = "rejection"
	jobLoginOTP              jobKind = "login_otp"
)

type job struct {
	kind      jobKind
	recipient string
	user      *domain.User
	agent     *domain.Agent
	approved  bool
	reason    string
	firstName string
	code      string
}

// Dispatcher is an asynchronous ports.Notifier. It shards deliveries across a
// fixed set of workers by recipient address, preserving per-recipient ordering,
// and guarantees catch-and-log on every send so callers never see a delivery
// failure.
type Dispatcher struct {
	workers []chan job
	sink    ports.Notifier
	log     zerolog.Logger
}

// NewDispatcher wraps sink with numWorkers sharded delivery workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) SendKycUploadedNotification(_ context.Context, adminUser *domain.User, agent *domain.Agent) error {
	d.enqueue(job{kind: jobKycUploaded, recipient: adminUser.Email, user: adminUser, agent: agent})
	return nil
}

func (d *Dispatcher) SendAgentRegistrationSubmittedNotification(_ context.Context, agentUser *domain.User, agent *domain.Agent) error {
	d.enqueue(job{kind: jobRegistrationSubmitted, recipient: agentUser.Email, user: agentUser, agent: agent})
	return nil
}

func (d *Dispatcher) SendAgentApprovalNotification(_ context.Context, agentUser *domain.User, agent *domain.Agent, approved bool) error {
	d.enqueue(job{kind: jobApproval, recipient: agentUser.Email, user: agentUser, agent: agent, approved: approved})
	return nil
}

func (d *Dispatcher) SendAgentRejectionNotification(_ context.Context, agentUser *domain.User, agent *domain.Agent, reason string) error {
	d.enqueue(job{kind: jobRejection, recipient: agentUser.Email, user: agentUser, agent: agent, reason: reason})
	return nil
}

func (d *Dispatcher) SendLoginVerificationEmail(_ context.Context, email, firstName, code string) error {
	d.enqueue(job{kind: jobLoginOTP, recipient: email, firstName: firstName, code: code})
	return nil
}

// enqueue routes the job to the worker owning its recipient. A full channel
// drops the notification with a warning rather than blocking the write path.
func (d *Dispatcher) enqueue(j job) {
	idx := d.shardIndex(j.recipient)
	select {
	case d.workers[idx] <- j:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.NotificationFailuresTotal.WithLabelValues(string(j.kind)).Inc()
		d.log.Warn().
			Str("kind", string(j.kind)).
			Str("recipient", j.recipient).
			Msg("notification queue full, dropping")
	}
}

func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.deliver(ctx, j); err != nil {
				metrics.NotificationFailuresTotal.WithLabelValues(string(j.kind)).Inc()
				d.log.Error().Err(err).
					Str("kind", string(j.kind)).
					Str("recipient", j.recipient).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) error {
	switch j.kind {
	case jobKycUploaded:
		return d.sink.SendKycUploadedNotification(ctx, j.user, j.agent)
	case jobRegistrationSubmitted:
		return d.sink.SendAgentRegistrationSubmittedNotification(ctx, j.user, j.agent)
	case jobApproval:
		return d.sink.SendAgentApprovalNotification(ctx, j.user, j.agent, j.approved)
	case jobRejection:
		return d.sink.SendAgentRejectionNotification(ctx, j.user, j.agent, j.reason)
	case jobLoginOTP:
		return d.sink.SendLoginVerificationEmail(ctx, j.recipient, j.firstName, j.code)
	}
	return nil
}
