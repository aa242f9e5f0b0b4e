// Package queue defines message payloads exchanged over the message broker.
package queue

// CoursePurchasedEvent is published when a webhook delivery grants a course
// to a buyer. It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type CoursePurchasedEvent struct {
	PurchaseID  uint64 `json:"purchase_id"`
	UserID      uint64 `json:"user_id"`
	Username    string `json:"user_name"`
	CourseID    uint64 `json:"course_id"`
	CourseName  string `json:"course_name"`
	SenseiID    uint64 `json:"sensei_id"`
	PriceCents  int64  `json:"price_cents"`
	PurchasedAt string `json:"purchased_at"`
}
