package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the JSON body delivered to the push endpoint.
type pushPayload struct {
	Type  EventKind `json:"type"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
}

// WorkerPool manages a pool of workers delivering attendance events as push
// notifications. Dispatch never blocks and never reports failure to the
// caller; a full queue drops the event with a logged warning.
type WorkerPool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, m *metrics.Metrics) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size*16),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		metrics: m,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case evt := <-wp.jobs:
			wp.deliver(ctx, evt)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event for delivery without blocking the caller.
func (wp *WorkerPool) Dispatch(evt Event) {
	select {
	case wp.jobs <- evt:
	default:
		log.Printf("Warning: notification queue full, dropping %s event for employee %s", evt.Kind, evt.EmployeeID)
		wp.metrics.Notification(string(evt.Kind), "dropped")
	}
}

// deliver fetches the employee's subscriptions and pushes the event to each.
func (wp *WorkerPool) deliver(ctx context.Context, evt Event) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("employee_id = ?", evt.EmployeeID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for employee %s: %v", evt.EmployeeID, err)
		wp.metrics.Notification(string(evt.Kind), "error")
		return
	}

	if len(subscriptions) == 0 {
		log.Printf("No push subscriptions for employee %s (%s), %s event not delivered", evt.EmployeeID, evt.Email, evt.Kind)
		return
	}

	title, body := evt.message()
	payload, err := json.Marshal(pushPayload{Type: evt.Kind, Title: title, Body: body})
	if err != nil {
		log.Printf("Error encoding payload for %s event: %v", evt.Kind, err)
		return
	}

	for _, sub := range subscriptions {
		wp.push(ctx, evt, sub, payload)
	}
}

// push sends a single web push notification.
func (wp *WorkerPool) push(ctx context.Context, evt Event, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending %s notification to %s: %v", evt.Kind, sub.Endpoint, err)
		wp.metrics.Notification(string(evt.Kind), "error")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		wp.metrics.Notification(string(evt.Kind), "expired")
		return
	}

	wp.metrics.Notification(string(evt.Kind), "sent")
}
