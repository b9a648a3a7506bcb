package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"busta/internal/core"
)

// maxBodyBytes caps request bodies; budget payloads are small JSON documents.
const maxBodyBytes = 1 << 20

// identity is the caller as asserted by the fronting proxy.
type identity struct {
	UserID      int64
	HouseholdID *int64
}

// callerIdentity reads the authenticated identity headers. The API trusts
// X-User-ID because authentication terminates at the proxy in front of it.
func callerIdentity(r *http.Request) (identity, error) {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return identity{}, fmt.Errorf("missing X-User-ID header")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return identity{}, fmt.Errorf("invalid X-User-ID header %q", raw)
	}

	id := identity{UserID: userID}
	if hh := strings.TrimSpace(r.Header.Get("X-Household-ID")); hh != "" {
		householdID, err := strconv.ParseInt(hh, 10, 64)
		if err != nil || householdID <= 0 {
			return identity{}, fmt.Errorf("invalid X-Household-ID header %q", hh)
		}
		id.HouseholdID = &householdID
	}
	return id, nil
}

// decodeJSON parses the request body into dst, rejecting unknown fields and
// oversized payloads.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	// A single JSON document per request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected trailing data after JSON body")
	}
	return nil
}

// centsAmount is a monetary request field. It decodes either a JSON number
// of cents or a decimal string such as "12.34" or "-12,34".
type centsAmount int64

func (c *centsAmount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := core.ParseDecimalToCents(s)
		if err != nil {
			return err
		}
		*c = centsAmount(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = centsAmount(v)
	return nil
}

// pathID parses the named path segment as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryDateRange parses required start/end date query parameters.
func queryDateRange(r *http.Request) (core.Date, core.Date, error) {
	start, err := core.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("invalid start date")
	}
	end, err := core.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("invalid end date")
	}
	return start, end, nil
}
