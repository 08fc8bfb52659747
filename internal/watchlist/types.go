package watchlist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is a caller-supplied watch list identifier. Clients send either a
// JSON string or a bare number; both normalize to the string form, and
// whichever form was received is echoed back on the wire.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("watch list id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if v, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(v, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Millis is a duration carried as integer milliseconds on the wire.
type Millis time.Duration

// Duration converts to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m)
}

// MarshalJSON emits the duration as whole milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// UnmarshalJSON reads whole milliseconds.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("interval must be integer milliseconds: %w", err)
	}
	*m = Millis(time.Duration(ms) * time.Millisecond)
	return nil
}

// WatchList is a named, ordered selection of instrument ids plus the
// default refresh interval used when the list is selected.
type WatchList struct {
	ID              ID     `json:"id"`
	Name            string `json:"name"`
	SelectedTickers []int  `json:"selectedTickers"`
	Interval        Millis `json:"interval"`
}

// clone returns a deep copy so callers can never alias stored state.
func (w WatchList) clone() WatchList {
	out := w
	out.SelectedTickers = make([]int, len(w.SelectedTickers))
	copy(out.SelectedTickers, w.SelectedTickers)
	return out
}
