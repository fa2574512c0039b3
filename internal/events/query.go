package events

import "time"

// QueryStart is emitted before a card's dataset query executes.
type QueryStart struct {
	CardID   int64
	Database string
	Hash     string
}

// QueryFinish is emitted after a card's dataset query completes.
type QueryFinish struct {
	CardID   int64
	Database string
	Hash     string
	Cached   bool
	Rows     int
	Err      error
	Duration time.Duration
}
