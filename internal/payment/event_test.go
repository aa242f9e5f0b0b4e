package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	body := []byte(`{
		"type": "checkout.session.completed",
		"data": {"object": {"metadata": {"user_id": "42", "course_id": "7"}}}
	}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, uint64(42), ev.UserID)
	assert.Equal(t, uint64(7), ev.CourseID)
}

func TestParseEvent_OtherTypeSkipsMetadata(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type": "invoice.paid", "data": {"object": {}}}`))
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", ev.Type)
	assert.Zero(t, ev.UserID)
}

func TestParseEvent_MissingMetadata(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type": "checkout.session.completed", "data": {"object": {"metadata": {"user_id": "42"}}}}`))
	assert.ErrorIs(t, err, ErrMissingMetadata)
}

func TestParseEvent_BadJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`{`))
	assert.Error(t, err)
}
