// Package request parses query parameters shared by the API handlers.
package request

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

var ErrBadParam = errors.New("invalid query parameter")

// Int64 returns nil when the parameter is absent.
func Int64(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadParam, name)
	}

	return &v, nil
}

// Time accepts RFC 3339 timestamps or plain dates. A plain date used as an
// upper bound covers the whole day.
func Time(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadParam, name)
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}

// UserID reads ?user_id=, defaulting to the caller, and checks the caller may act for it.
func UserID(r *http.Request, caller ledger.Caller) (int64, error) {
	id, err := Int64(r, "user_id")
	if err != nil {
		return 0, err
	}

	if id == nil {
		return caller.UserID, nil
	}

	if !caller.CanActFor(*id) {
		return 0, ledger.ErrForbidden
	}

	return *id, nil
}
