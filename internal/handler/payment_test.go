package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/model"
	"github.com/bytetech/academy-backend/internal/payment"
)

type mockGranter struct {
	mock.Mock
}

func (m *mockGranter) Grant(ctx context.Context, userID, courseID uint64) (model.Purchase, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(model.Purchase), args.Error(1)
}

func webhookConfig() config.Config {
	return config.Config{
		PaymentWebhookKey:   "whsec_test",
		WebhookToleranceSec: 300,
	}
}

func deliverWebhook(t *testing.T, h *PaymentHandler, body, sig string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Webhook(e.NewContext(req, rec)))
	return rec
}

func TestWebhook_GrantsOnCheckoutCompleted(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"42","course_id":"7"}}}}`
	sig := payment.Sign([]byte(body), "whsec_test", time.Now())

	g := new(mockGranter)
	g.On("Grant", mock.Anything, uint64(42), uint64(7)).
		Return(model.Purchase{ID: 1, UserID: 42, CourseID: 7, CreatedAt: time.Now()}, nil)

	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, sig)

	assert.Equal(t, http.StatusOK, rec.Code)
	g.AssertExpectations(t)
}

func TestWebhook_DuplicateDeliveryStillOK(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"42","course_id":"7"}}}}`
	sig := payment.Sign([]byte(body), "whsec_test", time.Now())

	g := new(mockGranter)
	// Grant is idempotent: the second delivery returns the existing row.
	g.On("Grant", mock.Anything, uint64(42), uint64(7)).
		Return(model.Purchase{ID: 1, UserID: 42, CourseID: 7, CreatedAt: time.Now()}, nil).Twice()

	h := NewPaymentHandler(webhookConfig(), g, nil, nil, nil)
	assert.Equal(t, http.StatusOK, deliverWebhook(t, h, body, sig).Code)
	assert.Equal(t, http.StatusOK, deliverWebhook(t, h, body, sig).Code)
	g.AssertExpectations(t)
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"42","course_id":"7"}}}}`
	sig := payment.Sign([]byte(body), "whsec_wrong", time.Now())

	g := new(mockGranter)
	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, sig)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	g.AssertNotCalled(t, "Grant")
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"42","course_id":"7"}}}}`

	g := new(mockGranter)
	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	g.AssertNotCalled(t, "Grant")
}

func TestWebhook_OtherEventsAcknowledged(t *testing.T) {
	body := `{"type":"invoice.paid","data":{"object":{}}}`
	sig := payment.Sign([]byte(body), "whsec_test", time.Now())

	g := new(mockGranter)
	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, sig)

	assert.Equal(t, http.StatusOK, rec.Code)
	g.AssertNotCalled(t, "Grant")
}

func TestWebhook_GrantFailureAnswers400(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{"user_id":"42","course_id":"7"}}}}`
	sig := payment.Sign([]byte(body), "whsec_test", time.Now())

	g := new(mockGranter)
	g.On("Grant", mock.Anything, uint64(42), uint64(7)).
		Return(model.Purchase{}, assert.AnError)

	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, sig)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	g.AssertExpectations(t)
}

func TestWebhook_MissingMetadataRejected(t *testing.T) {
	body := `{"type":"checkout.session.completed","data":{"object":{"metadata":{}}}}`
	sig := payment.Sign([]byte(body), "whsec_test", time.Now())

	g := new(mockGranter)
	rec := deliverWebhook(t, NewPaymentHandler(webhookConfig(), g, nil, nil, nil), body, sig)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	g.AssertNotCalled(t, "Grant")
}
