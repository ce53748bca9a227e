package redis

import (
	"encoding/json"
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	ctx, st := suite.New(t)

	publisher := NewPublisher(st.Storage, "")

	// Given: a subscriber on room1
	sub := st.Storage.Subscribe(ctx, publisher.Channel("room1"))
	t.Cleanup(func() { _ = sub.Close() })

	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	// When: a state event is published
	state := entity.RoomState{ID: "room1", Status: entity.StatusWaiting}
	err = publisher.Publish(ctx, entity.NewStateEvent(state))
	require.NoError(t, err)

	// Then: the subscriber receives it on the room channel
	message, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "room:room1", message.Channel)

	var event entity.RoomEvent
	require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
	assert.Equal(t, entity.EventRoomState, event.Type)
	require.NotNil(t, event.State)
	assert.Equal(t, entity.StatusWaiting, event.State.Status)
}

func TestPublisher_Channel(t *testing.T) {
	publisher := NewPublisher(nil, "caro:")

	assert.Equal(t, "caro:abc", publisher.Channel("abc"))
}
