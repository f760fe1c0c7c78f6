package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/folioapp/folio/internal/model"
)

// Job is a pending notification about a new contact message.
type Job struct {
	ContactID  string    `json:"contact_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// Sender delivers a single email.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Notifier queues contact notifications and delivers them to the site
// owner from a background worker. Delivery failures are logged only.
type Notifier struct {
	queue  Queue
	sender Sender
	to     string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier creates a Notifier. It is a no-op when sender is nil or not
// configured, or when to is empty.
func NewNotifier(queue Queue, sender Sender, to string, logger *slog.Logger) *Notifier {
	return &Notifier{queue: queue, sender: sender, to: to, logger: logger}
}

// Enabled reports whether notifications will be delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.queue != nil && n.sender != nil && n.sender.Configured() && n.to != ""
}

// ContactReceived queues a notification for c. Errors are logged and
// never returned to the caller.
func (n *Notifier) ContactReceived(ctx context.Context, c *model.ContactMessage) {
	if !n.Enabled() {
		return
	}
	job := Job{
		ContactID:  c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Message:    c.Message,
		ReceivedAt: c.CreatedAt,
	}
	if err := n.queue.Enqueue(ctx, job); err != nil {
		n.logger.Warn("failed to queue contact notification", "contact_id", c.ID, "error", err)
	}
}

// Start launches the delivery worker. It returns immediately.
func (n *Notifier) Start(ctx context.Context) {
	if !n.Enabled() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done != nil {
		return
	}
	ctx, n.cancel = context.WithCancel(ctx)
	n.done = make(chan struct{})
	go func() {
		defer close(n.done)
		n.run(ctx)
	}()
}

// Stop closes the queue and waits for the worker to finish or for ctx to
// expire, whichever comes first. Jobs already queued in memory are
// delivered before the worker exits.
func (n *Notifier) Stop(ctx context.Context) error {
	if n == nil || n.queue == nil {
		return nil
	}
	n.mu.Lock()
	done, cancel := n.done, n.cancel
	n.mu.Unlock()

	err := n.queue.Close()
	if done == nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		<-done
	}
	return err
}

func (n *Notifier) run(ctx context.Context) {
	n.logger.Info("notification worker started", "to", n.to)
	for {
		job, err := n.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				n.logger.Info("notification worker stopped")
				return
			}
			n.logger.Error("notification queue error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		n.deliver(ctx, job)
	}
}

func (n *Notifier) deliver(ctx context.Context, job Job) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := n.sender.Send(sendCtx, contactEmail(n.to, job)); err != nil {
		n.logger.Error("contact notification failed", "contact_id", job.ContactID, "error", err)
		return
	}
	n.logger.Info("contact notification sent", "contact_id", job.ContactID)
}

func contactEmail(to string, job Job) Message {
	var text strings.Builder
	fmt.Fprintf(&text, "New message from %s <%s>\n\n", job.Name, job.Email)
	text.WriteString(job.Message)

	htmlBody := fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(job.Name),
		html.EscapeString(job.Email),
		strings.ReplaceAll(html.EscapeString(job.Message), "\n", "<br>"),
	)

	return Message{
		To:       to,
		Subject:  "New message from " + job.Name,
		TextBody: text.String(),
		HTMLBody: htmlBody,
		ReplyTo:  job.Email,
	}
}
