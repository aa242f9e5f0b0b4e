package payment

import (
	"encoding/json"
	"errors"
	"strconv"
)

// EventCheckoutCompleted is the only webhook event type the backend acts
// on; everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrMissingMetadata is returned when a completed-checkout event lacks the
// user or course reference we put on the session at creation time.
var ErrMissingMetadata = errors.New("webhook event missing user_id or course_id metadata")

// Event is a decoded webhook delivery.
type Event struct {
	Type     string
	UserID   uint64
	CourseID uint64
}

// ParseEvent decodes a webhook body.  Metadata is only required for
// checkout-completed events.
func ParseEvent(body []byte) (Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, err
	}
	ev := Event{Type: raw.Type}
	if ev.Type != EventCheckoutCompleted {
		return ev, nil
	}

	uid, err := strconv.ParseUint(raw.Data.Object.Metadata["user_id"], 10, 64)
	if err != nil {
		return Event{}, ErrMissingMetadata
	}
	cid, err := strconv.ParseUint(raw.Data.Object.Metadata["course_id"], 10, 64)
	if err != nil {
		return Event{}, ErrMissingMetadata
	}
	ev.UserID = uid
	ev.CourseID = cid
	return ev, nil
}
