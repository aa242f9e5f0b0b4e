package handler

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/payment"
	"github.com/bytetech/academy-backend/internal/queue"
	"github.com/bytetech/academy-backend/internal/repository"
)

// maxWebhookBody caps how much of a delivery is read before verification.
const maxWebhookBody = 1 << 20

// Granter is the slice of the purchase repository the webhook needs.
type Granter interface {
	Grant(ctx context.Context, userID, courseID uint64) (model.Purchase, error)
}

// PurchasePublisher emits purchase events to the broker.
type PurchasePublisher interface {
	PublishCoursePurchased(ctx context.Context, event queue.CoursePurchasedEvent) error
}

// PaymentHandler processes gateway webhook deliveries.
type PaymentHandler struct {
	Cfg     config.Config
	Grants  Granter
	Courses *repository.CourseRepo
	Users   *repository.UserRepo
	Events  PurchasePublisher
}

func NewPaymentHandler(cfg config.Config, g Granter, courses *repository.CourseRepo, users *repository.UserRepo, events PurchasePublisher) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Grants: g, Courses: courses, Users: users, Events: events}
}

// Webhook verifies the delivery signature, grants the purchased course on
// checkout completion, and acknowledges everything else.  Grants are
// idempotent, so redelivered events answer 200 without a second row.
// Processing failures answer 400 so the gateway retries the delivery.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}

	tolerance := time.Duration(h.Cfg.WebhookToleranceSec) * time.Second
	sig := c.Request().Header.Get("Stripe-Signature")
	if err := payment.VerifySignature(sig, body, h.Cfg.PaymentWebhookKey, tolerance, time.Now()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event"})
	}
	if ev.Type != payment.EventCheckoutCompleted {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Grants.Grant(ctx, ev.UserID, ev.CourseID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grant failed"})
	}

	h.publishPurchase(ctx, p)
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// publishPurchase emits a purchase.completed event with course and buyer
// context.  Everything here is best-effort; the grant already happened.
func (h *PaymentHandler) publishPurchase(ctx context.Context, p model.Purchase) {
	if h.Events == nil || h.Courses == nil || h.Users == nil {
		return
	}
	course, err := h.Courses.GetByID(ctx, p.CourseID)
	if err != nil {
		log.Printf("payment: load course for event: %v", err)
		return
	}
	buyer, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		log.Printf("payment: load buyer for event: %v", err)
		return
	}
	err = h.Events.PublishCoursePurchased(ctx, queue.CoursePurchasedEvent{
		PurchaseID:  p.ID,
		UserID:      buyer.ID,
		Username:    buyer.Username,
		CourseID:    course.ID,
		CourseName:  course.Name,
		SenseiID:    course.SenseiID,
		PriceCents:  int64(course.Price * 100),
		PurchasedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("payment: publish purchase event: %v", err)
	}
}
