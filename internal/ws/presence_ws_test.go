package ws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"social-service/internal/mocks"
)

type announcerMock struct {
	mock.Mock
}

func (m *announcerMock) PublishPresencePing(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newPresenceHandler(tracker *mocks.TrackerMock, announcer *announcerMock) *PresenceWSHandler {
	return NewPresenceWSHandler(NewHub(nil, zap.NewNop()), tracker, announcer, nil, time.Minute, zap.NewNop())
}

func TestAnnounceTracksAndPings(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	announcer := new(announcerMock)
	handler := newPresenceHandler(tracker, announcer)

	tracker.On("Track", mock.Anything, 7).Return(nil).Once()
	announcer.On("PublishPresencePing", mock.Anything).Return(nil).Once()

	assert.True(t, handler.announce(context.Background(), 7))
	tracker.AssertExpectations(t)
	announcer.AssertExpectations(t)
}

func TestAnnounceDegradesOnTrackFailure(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	announcer := new(announcerMock)
	handler := newPresenceHandler(tracker, announcer)

	tracker.On("Track", mock.Anything, 7).Return(errors.New("redis down")).Once()

	assert.False(t, handler.announce(context.Background(), 7))
	announcer.AssertNotCalled(t, "PublishPresencePing", mock.Anything)
}

func TestWithdrawUntracksOnlyWhenTracked(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	announcer := new(announcerMock)
	handler := newPresenceHandler(tracker, announcer)

	tracker.On("Untrack", mock.Anything, 7).Return(nil).Once()
	announcer.On("PublishPresencePing", mock.Anything).Return(nil).Once()

	handler.withdraw(7, true)
	tracker.AssertExpectations(t)
	announcer.AssertExpectations(t)
}

func TestWithdrawSkippedWhenNeverTracked(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	announcer := new(announcerMock)
	handler := newPresenceHandler(tracker, announcer)

	handler.withdraw(7, false)
	tracker.AssertNotCalled(t, "Untrack", mock.Anything, mock.Anything)
	announcer.AssertNotCalled(t, "PublishPresencePing", mock.Anything)
}

func TestHeartbeatLoopRefreshesUntilCancel(t *testing.T) {
	tracker := new(mocks.TrackerMock)
	announcer := new(announcerMock)
	handler := NewPresenceWSHandler(NewHub(nil, zap.NewNop()), tracker, announcer, nil, 10*time.Millisecond, zap.NewNop())

	refreshed := make(chan struct{}, 8)
	tracker.On("Refresh", mock.Anything, 7).Run(func(mock.Arguments) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	}).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go handler.heartbeatLoop(ctx, 7)

	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("heartbeat never refreshed the presence entry")
	}
	cancel()
}
