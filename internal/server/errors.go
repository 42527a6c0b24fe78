package server

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already exists")
	ErrParticipantExists = errors.New("participant already in session")
	ErrSessionFull       = errors.New("session is full")
	ErrGameInProgress    = errors.New("game is in progress")
	ErrNotEnoughPlayers  = errors.New("not enough participants")
	ErrNotAllReady       = errors.New("not all participants are ready")
	ErrHostOnly          = errors.New("only the host can perform this action")
	ErrUnknownVariant    = errors.New("unknown game variant")
	ErrGameRunning       = errors.New("a game is already running for this session")
)
