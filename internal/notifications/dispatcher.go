package notifications

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"
)

// Dispatcher delivers an event to one user without blocking the caller.
type Dispatcher interface {
	Notify(ctx context.Context, recipientID uint, eventType, message string, payload map[string]interface{})
}

// Publisher is the transport behind AsyncDispatcher. *Notifier implements it.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// DefaultNotifyTimeout bounds one delivery when no timeout is configured.
const DefaultNotifyTimeout = 2 * time.Second

// AsyncDispatcher publishes each event on its own goroutine. Failures are
// logged and counted; they never reach the caller.
type AsyncDispatcher struct {
	publisher Publisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher on top of publisher.
func NewAsyncDispatcher(publisher Publisher, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &AsyncDispatcher{publisher: publisher, timeout: timeout}
}

// Notify implements Dispatcher.
func (d *AsyncDispatcher) Notify(ctx context.Context, recipientID uint, eventType, message string, payload map[string]interface{}) {
	if d == nil || d.publisher == nil {
		return
	}

	event := NewEvent(recipientID, eventType, message, payload)
	// Detach from the request so a finished response does not cancel delivery,
	// but keep its values for log correlation.
	bg := observability.WithCorrelationID(context.WithoutCancel(ctx), event.ID)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.fail(bg, event, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
			}
		}()

		sendCtx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		observability.LogAsyncOperationStart(sendCtx, "notify", map[string]interface{}{
			"event_type":   event.Type,
			"recipient_id": event.RecipientID,
		})

		wire, err := event.Encode()
		if err != nil {
			d.fail(sendCtx, event, err)
			return
		}
		if err := d.publisher.PublishUser(sendCtx, event.RecipientID, wire); err != nil {
			d.fail(sendCtx, event, err)
			return
		}

		observability.NotificationsDispatched.WithLabelValues(event.Type, observability.OutcomeSent).Inc()
		observability.LogAsyncOperationEnd(sendCtx, "notify", map[string]interface{}{
			"event_type":   event.Type,
			"recipient_id": event.RecipientID,
		})
	}()
}

func (d *AsyncDispatcher) fail(ctx context.Context, event Event, err error) {
	observability.NotificationsDispatched.WithLabelValues(event.Type, observability.OutcomeFailed).Inc()
	observability.LogAsyncOperationError(ctx, "notify", err, map[string]interface{}{
		"event_type":   event.Type,
		"recipient_id": event.RecipientID,
	})
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *AsyncDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopDispatcher drops every event.
type NopDispatcher struct{}

// Notify implements Dispatcher.
func (NopDispatcher) Notify(context.Context, uint, string, string, map[string]interface{}) {}
