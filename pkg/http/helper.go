package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "courtbook/pkg/errors"

	"github.com/julienschmidt/httprouter"
)

// DecodeJSON reads a single JSON document from the request body, rejecting
// unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperrors.InvalidInput(fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	return nil
}

func PathID(ps httprouter.Params, name string) (int64, error) {
	raw := ps.ByName(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid %s: %s", name, raw))
	}
	return id, nil
}

// QueryID returns the positive integer query parameter name, or ok=false when
// it is absent.
func QueryID(r *http.Request, name string) (id int64, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", name, raw))
	}
	return id, true, nil
}

func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", name, raw))
	}
	return n, nil
}

// QueryDate parses a YYYY-MM-DD parameter in loc, or ok=false when absent.
func QueryDate(r *http.Request, name string, loc *time.Location) (day time.Time, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	day, err = time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter, expected YYYY-MM-DD: %s", name, raw))
	}
	return day, true, nil
}

// QueryDateRange reads from/to, defaulting either missing bound to today.
func QueryDateRange(r *http.Request, loc *time.Location, now time.Time) (from, to time.Time, err error) {
	today := now.In(loc)
	from, ok, err := QueryDate(r, "from", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		from = today
	}
	to, ok, err = QueryDate(r, "to", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("to must not be before from")
	}
	return from, to, nil
}
