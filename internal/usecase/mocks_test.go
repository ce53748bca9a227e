package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockRewardDispatcher struct {
	mock.Mock
}

func (m *mockRewardDispatcher) Dispatch(ctx context.Context, outcome entity.Outcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, event entity.RoomEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingPublisher keeps every event it receives.
type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.RoomEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event entity.RoomEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

func (r *recordingPublisher) Last() entity.RoomEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.events[len(r.events)-1]
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, entity.Outcome) error {
	panic("rewards service exploded")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
