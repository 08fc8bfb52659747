package session

import "github.com/tickstream/tickstream/internal/watchlist"

// Inbound event names (client -> server).
const (
	EventStart           = "start"
	EventChangeUptime    = "change-uptime"
	EventCreateWatchList = "create-watching-list"
	EventSelectWatchList = "select-watching-list"
	EventSelectAll       = "select-all-tickers"
	EventDeleteWatchList = "delete-watching-list"
)

// Outbound event names (server -> client).
const (
	EventTicker = "ticker"
	EventInit   = "init"
	EventError  = "error"
)

// Error codes carried on EventError payloads.
const (
	CodeNotFound       = "not_found"
	CodeDuplicateID    = "duplicate_id"
	CodeInvalidCommand = "invalid_command"
)

// ChangeUptimePayload is the change-uptime payload. Uptime is in seconds.
type ChangeUptimePayload struct {
	Uptime float64 `json:"uptime"`
}

// SelectPayload is the select-watching-list payload.
type SelectPayload struct {
	ID       watchlist.ID     `json:"id"`
	Interval watchlist.Millis `json:"interval"`
}

// DeletePayload is the delete-watching-list payload. The interval applies
// only when the deleted list was the session's active selection.
type DeletePayload struct {
	ID       watchlist.ID     `json:"id"`
	Interval watchlist.Millis `json:"interval"`
}

// SelectAllPayload is the select-all-tickers payload.
type SelectAllPayload struct {
	Interval watchlist.Millis `json:"interval"`
}

// InitPayload is emitted on start and after store mutations. Interval is
// present only on the initial start.
type InitPayload struct {
	Interval   *watchlist.Millis     `json:"interval,omitempty"`
	WatchLists []watchlist.WatchList `json:"watchLists"`
}

// ErrorPayload reports a rejected command back to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
