package pkg

import (
	"testing"

	"github.com/mtaylor91/bingo-server/pkg/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	m, err := decodeMessage([]byte(`{"event":"join-room","data":{"roomCode":"abcde","name":"Bob"}}`))
	require.NoError(t, err)
	assert.Equal(t, game.EventJoinRoom, m.Event)

	var req game.JoinRoomRequest
	require.NoError(t, m.decodePayload(&req))
	assert.Equal(t, game.JoinRoomRequest{RoomCode: "abcde", Name: "Bob"}, req)
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"not json", `hello`},
		{"no event", `{"data":{}}`},
		{"wrong shape", `["create-room"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMessage([]byte(tt.message))
			assert.Error(t, err)
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"missing", `{"event":"call-number"}`},
		{"null", `{"event":"call-number","data":null}`},
		{"bad number", `{"event":"call-number","data":{"roomCode":"ABCDE","number":"five"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := decodeMessage([]byte(tt.message))
			require.NoError(t, err)

			var req game.CallNumberRequest
			assert.Error(t, m.decodePayload(&req))
		})
	}
}

func TestEncodeMessage(t *testing.T) {
	message, err := encodeMessage(game.EventError, "Room is already full.")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"error","data":"Room is already full."}`, string(message))

	message, err = encodeMessage(game.EventGameOver, game.GameOver{Winner: "Alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"game-over","data":{"winner":"Alice"}}`, string(message))

	_, err = encodeMessage(game.EventError, make(chan int))
	assert.Error(t, err)
}
