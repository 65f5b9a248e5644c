package managers

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// NotificationMgr delivers a short message to a single user. Delivery is
// fire-and-forget: failures are reported back for counting but never block
// or fail the request that triggered them.
type NotificationMgr interface {
	Notify(ctx context.Context, email, name, message string) error
}

// MailNotificationManager delivers notifications over email.
type MailNotificationManager struct {
	Mail MailMgr
}

// NewMailNotificationManager creates a notification manager backed by the mail manager.
func NewMailNotificationManager(mail MailMgr) NotificationMgr {
	log.Info("Initializing notification manager")
	return &MailNotificationManager{Mail: mail}
}

// Notify sends the message as a broadcast mail to the recipient.
func (nm *MailNotificationManager) Notify(_ context.Context, email, name, message string) error {
	return nm.Mail.SendBroadcastMail(email, name, message)
}

// Delivery is a single recorded notification.
type Delivery struct {
	Email   string
	Name    string
	Message string
}

// MemoryNotificationManager records deliveries in memory for inspection in tests.
type MemoryNotificationManager struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// NewMemoryNotificationManager constructs an empty in-memory notification manager.
func NewMemoryNotificationManager() *MemoryNotificationManager {
	return &MemoryNotificationManager{}
}

// Notify records the delivery.
func (nm *MemoryNotificationManager) Notify(_ context.Context, email, name, message string) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.deliveries = append(nm.deliveries, Delivery{Email: email, Name: name, Message: message})
	return nil
}

// Deliveries returns a copy of the deliveries seen so far.
func (nm *MemoryNotificationManager) Deliveries() []Delivery {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	out := make([]Delivery, len(nm.deliveries))
	copy(out, nm.deliveries)
	return out
}
