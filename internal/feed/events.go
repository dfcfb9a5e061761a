package feed

import "time"

// Event types pushed while a refresh batch runs.
const (
	EventRunStart        = "refresh.start"
	EventProductResolved = "refresh.resolved"
	EventProductFailed   = "refresh.failed"
	EventRunDone         = "refresh.done"
)

// Event is one progress update of a refresh run, broadcast to every
// connected UI client.
type Event struct {
	Type     string    `json:"type"`
	RunID    string    `json:"run_id"`
	URL      string    `json:"url,omitempty"`
	Name     string    `json:"name,omitempty"`
	Stage    string    `json:"stage,omitempty"`
	Error    string    `json:"error,omitempty"`
	Total    int       `json:"total,omitempty"`
	Resolved int       `json:"resolved,omitempty"`
	Failed   int       `json:"failed,omitempty"`
	At       time.Time `json:"at"`
}
