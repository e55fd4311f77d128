// Package mailer delivers account notifications. Sends are queued and
// handled by a background worker with bounded retry; the request path
// never blocks on delivery and never sees a delivery failure.
package mailer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindOTP             Kind = "otp"
	KindPasswordChanged Kind = "password_changed"
)

type Message struct {
	Kind Kind
	To   []string
	Data map[string]string
}

// Sender performs a single delivery attempt.
type Sender interface {
	Send(msg Message) error
}

// Mailer is the narrow surface the services depend on.
type Mailer interface {
	Enqueue(msg Message)
}

const (
	maxAttempts = 3
	queueDepth  = 256
)

// Queue is the in-process delivery queue. Each message gets up to
// maxAttempts deliveries with exponential backoff; the final failure
// is logged and dropped.
type Queue struct {
	sender  Sender
	ch      chan Message
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	backoff func(attempt int) time.Duration
}

func NewQueue(sender Sender) *Queue {
	q := &Queue{
		sender: sender,
		ch:     make(chan Message, queueDepth),
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Enqueue queues a message for delivery. Never blocks and never
// panics: a full queue drops the message with a logged error, and a
// stopped queue does the same so late requests during shutdown stay
// safe.
func (q *Queue) Enqueue(msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		slog.Error("mail queue stopped, dropping message", "kind", msg.Kind, "to", msg.To)
		return
	}
	select {
	case q.ch <- msg:
	default:
		slog.Error("mail queue full, dropping message", "kind", msg.Kind, "to", msg.To)
	}
}

// Stop drains the queue and waits for the worker to finish. Safe to
// call more than once; Enqueue after Stop drops instead of panicking.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.ch)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.ch {
		q.deliver(msg)
	}
}

func (q *Queue) deliver(msg Message) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = q.sender.Send(msg); err == nil {
			slog.Info("mail delivered", "kind", msg.Kind, "to", msg.To, "attempt", attempt)
			return
		}
		if attempt < maxAttempts {
			time.Sleep(q.backoff(attempt))
		}
	}
	slog.Error("mail delivery failed, giving up",
		"kind", msg.Kind, "to", msg.To, "attempts", maxAttempts, "error", err)
}

// render builds the subject and plain-text body for a message kind.
func render(msg Message) (subject, body string) {
	name := msg.Data["name"]
	switch msg.Kind {
	case KindWelcome:
		subject = "Welcome to CampusWorks"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account has been created. Verify your email by visiting:\n%s\n",
			name, msg.Data["verify_url"])
	case KindOTP:
		subject = "Your password reset code"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour one-time passcode is: %s\nIt expires in %s.\n",
			name, msg.Data["otp"], msg.Data["expires_in"])
	case KindPasswordChanged:
		subject = "Your password was changed"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account password was just changed. If this wasn't you, contact support immediately.\n",
			name)
	default:
		subject = "CampusWorks notification"
		body = fmt.Sprintf("Hi %s,\n", name)
	}
	return subject, body
}
