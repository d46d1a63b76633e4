package game

import "errors"

// The messages double as the text sent to clients in an error event.
var (
	ErrRoomNotFound       = errors.New("Room does not exist.")
	ErrRoomFull           = errors.New("Room is already full.")
	ErrIllegalMove        = errors.New("Not your turn.")
	ErrPlayerDisconnected = errors.New("A player has disconnected. Game ended.")
	ErrAlreadySeated      = errors.New("You are already in a room.")
	ErrCodeSpaceExhausted = errors.New("Unable to create room.")
	ErrServerShuttingDown = errors.New("Server is shutting down.")
)
