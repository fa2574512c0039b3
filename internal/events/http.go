package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an API request begins.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted when an API request completes.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
