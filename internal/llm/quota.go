package llm

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultGuestLimit is the daily scan allowance for callers without a session.
const DefaultGuestLimit = 5

// Guest quota response headers set by the relay.
const (
	HeaderGuestUsed      = "X-Guest-Used"
	HeaderGuestRemaining = "X-Guest-Remaining"
	HeaderGuestLimit     = "X-Guest-Limit"
)

// Quota is the guest allowance reported by the relay. The gateway only
// reports it; blocking further scans is up to the caller.
type Quota struct {
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Reported  bool `json:"-"`
}

// DefaultQuota is assumed when the relay says nothing about quota.
func DefaultQuota() Quota {
	return Quota{Remaining: DefaultGuestLimit, Limit: DefaultGuestLimit}
}

// Exhausted reports whether no guest scans remain.
func (q Quota) Exhausted() bool {
	return q.Remaining <= 0
}

// quotaFromHeaders reads the three guest quota headers, defaulting each one
// that is missing or not a number.
func quotaFromHeaders(h http.Header) Quota {
	q := DefaultQuota()
	if v, ok := headerInt(h, HeaderGuestUsed); ok {
		q.Used = v
		q.Reported = true
	}
	if v, ok := headerInt(h, HeaderGuestRemaining); ok {
		q.Remaining = v
		q.Reported = true
	}
	if v, ok := headerInt(h, HeaderGuestLimit); ok {
		q.Limit = v
		q.Reported = true
	}
	return q
}

func headerInt(h http.Header, name string) (int, bool) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
