package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stitchpress/storefront/pkg/messaging"
)

// NoticeEvent carries a user-facing message emitted by cart and checkout
// operations. Delivery is fire-and-forget; the notifier service consumes
// these from JetStream.
type NoticeEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	EmittedAt   time.Time `json:"emitted_at"`
}

func (n NoticeEvent) Subject() string {
	return messaging.NoticesSubject
}

func (n NoticeEvent) Payload() ([]byte, error) {
	return json.Marshal(n)
}
