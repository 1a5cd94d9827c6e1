package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *publisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestEmitBuildsEnvelope(t *testing.T) {
	pub := new(publisherMock)
	emitter := NewAuditEmitter(pub, "audit.social", "social-service", "test", zap.NewNop())

	userID := 42
	pub.On("Publish", mock.Anything, "audit.social", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Service == "social-service" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == 42 &&
			envelope.Payload.Level == "WARN"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "WARN", "user 5 blocked", "req-1", &userID)
	pub.AssertExpectations(t)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "ignored", "req-2", nil)
	})

	// A constructed emitter without a publisher is equally inert.
	inert := NewAuditEmitter(nil, "audit.social", "social-service", "test", zap.NewNop())
	assert.NotPanics(t, func() {
		inert.Emit(context.Background(), "INFO", "ignored", "req-3", nil)
	})
}
