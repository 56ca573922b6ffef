package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/progress/internal/events"
)

type recordingInvalidator struct {
	calls [][2]string
	err   error
}

func (r *recordingInvalidator) InvalidateUser(_ context.Context, tenantID, userID string) error {
	r.calls = append(r.calls, [2]string{tenantID, userID})
	return r.err
}

func TestInvalidationHandlerInvalidatesUser(t *testing.T) {
	inv := &recordingInvalidator{}
	h := NewInvalidationHandler(inv, testLogger(t))
	before := testutil.ToFloat64(invalidationCounter.WithLabelValues("measurement"))

	err := h.Handle(context.Background(), Message{
		EventType: events.EventTypeRecordChanged,
		TenantID:  "tenant-1",
		Payload:   []byte(`{"user_id":"user-1","record_type":"measurement","record_id":"m1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"tenant-1", "user-1"}}, inv.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(invalidationCounter.WithLabelValues("measurement")))
}

func TestInvalidationHandlerIgnoresOtherEvents(t *testing.T) {
	inv := &recordingInvalidator{}
	h := NewInvalidationHandler(inv, testLogger(t))

	require.NoError(t, h.Handle(context.Background(), Message{EventType: "activity.created", Payload: []byte(`{}`)}))
	assert.Empty(t, inv.calls)
}

func TestInvalidationHandlerRejects(t *testing.T) {
	cases := map[string]struct {
		msg    Message
		reason string
	}{
		"bad payload":     {Message{EventType: events.EventTypeRecordChanged, Payload: []byte(`[]`)}, rejectPayload},
		"no user":         {Message{EventType: events.EventTypeRecordChanged, TenantID: "t", Payload: []byte(`{}`)}, rejectMissingSubject},
		"tenant mismatch": {Message{EventType: events.EventTypeRecordChanged, TenantID: "t1", Payload: []byte(`{"tenant_id":"t2","user_id":"u"}`)}, rejectTenantMismatch},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			inv := &recordingInvalidator{}
			before := testutil.ToFloat64(rejectedCounter.WithLabelValues(tc.reason))
			require.Error(t, NewInvalidationHandler(inv, testLogger(t)).Handle(context.Background(), tc.msg))
			assert.Empty(t, inv.calls)
			assert.Equal(t, before+1, testutil.ToFloat64(rejectedCounter.WithLabelValues(tc.reason)))
		})
	}
}

func TestInvalidationHandlerPropagatesCacheErrors(t *testing.T) {
	boom := errors.New("cache unavailable")
	h := NewInvalidationHandler(&recordingInvalidator{err: boom}, testLogger(t))

	err := h.Handle(context.Background(), Message{
		EventType: events.EventTypeRecordChanged,
		Payload:   []byte(`{"tenant_id":"t","user_id":"u"}`),
	})
	require.ErrorIs(t, err, boom)
}
