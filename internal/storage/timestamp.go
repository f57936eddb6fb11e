package storage

import (
	"encoding/json"
	"time"
)

// flexTime decodes the timestamp shapes that show up in exported documents:
// RFC3339 strings, unix-second or unix-millisecond numbers, and
// `{"seconds": n, "nanoseconds": n}` objects. Whatever the shape, the value
// is normalized to a time.Time here so the rest of the code never branches
// on it. A missing or malformed value decodes to the zero time ("never").
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, s)
		}
		if err != nil {
			t.Time = time.Time{}
			return nil
		}
		t.Time = parsed
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Time = fromUnixNumber(n)
		return nil
	}

	var obj struct {
		Seconds     int64 `json:"seconds"`
		Nanoseconds int64 `json:"nanoseconds"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Seconds != 0 {
		t.Time = time.Unix(obj.Seconds, obj.Nanoseconds).UTC()
		return nil
	}

	t.Time = time.Time{}
	return nil
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// fromUnixNumber interprets a numeric timestamp as unix seconds, or unix
// milliseconds when the magnitude is too large for a plausible second count.
func fromUnixNumber(n float64) time.Time {
	const millisCutoff = 1e11 // ~5138 AD in seconds; anything larger is millis
	if n >= millisCutoff || n <= -millisCutoff {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}

func (t flexTime) ptr() *time.Time {
	if t.Time.IsZero() {
		return nil
	}
	tt := t.Time
	return &tt
}

func flexFromPtr(p *time.Time) flexTime {
	if p == nil {
		return flexTime{}
	}
	return flexTime{*p}
}
