package errors

import "errors"

// Domain sentinels. Handlers map these to HTTP statuses; the websocket
// gateway forwards their messages to the offending connection.
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrTableFull       = errors.New("table is full")
	ErrTableNotPlaying = errors.New("table is not in play")
	ErrSeatNotFound    = errors.New("player is not seated at this table")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidCheck    = errors.New("cannot check: call or raise required")
	ErrInvalidRaise    = errors.New("raise must be at least double the current bet and within your stack")

	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPersistenceDisabled  = errors.New("no persistence backend configured")
	ErrInvalidProfileUpdate = errors.New("invalid profile update")

	ErrAdminNotFound        = errors.New("admin not found")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAdminDisabled        = errors.New("admin account disabled")
)
