package statusrpc

import (
	"fmt"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Actions accepted on a bound connection.
const (
	ActionHello      = "hello"
	ActionStatus     = "status"
	ActionCompletion = "completion"
	ActionTokens     = "tokens"
	ActionRateLimit  = "rate_limit"
	ActionUsage      = "usage"
)

// Request is one frame sent by a client. Only the fields of the named
// action are set. Times travel as unix seconds; zero means unset.
// Fields are ordered to minimize memory padding.
type Request struct {
	Action           string  `cbor:"action"`
	Session          string  `cbor:"session,omitempty"` // hello only
	Status           string  `cbor:"status,omitempty"`
	Message          string  `cbor:"message,omitempty"`
	PRURL            string  `cbor:"pr_url,omitempty"`
	Window           string  `cbor:"window,omitempty"`
	Cost             float64 `cbor:"cost,omitempty"`
	FiveHourPct      float64 `cbor:"five_hour_pct,omitempty"`
	SevenDayPct      float64 `cbor:"seven_day_pct,omitempty"`
	InputTokens      int64   `cbor:"input_tokens,omitempty"`
	OutputTokens     int64   `cbor:"output_tokens,omitempty"`
	ResetsAt         int64   `cbor:"resets_at,omitempty"`
	FiveHourResetsAt int64   `cbor:"five_hour_resets_at,omitempty"`
	SevenDayResetsAt int64   `cbor:"seven_day_resets_at,omitempty"`
}

// Response answers every request frame, including hello.
type Response struct {
	Error string `cbor:"error,omitempty"`
	OK    bool   `cbor:"ok"`
}

// Error is a failure reported by the service.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("status service error on %q: %s", e.Action, e.Message)
}

func unixTime(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func newStatusRequest(r domain.StatusReport) Request {
	return Request{Action: ActionStatus, Status: string(r.Status), Message: r.Message}
}

func newCompletionRequest(r domain.CompletionReport) Request {
	return Request{Action: ActionCompletion, PRURL: r.PRURL, Message: r.Message}
}

func newTokensRequest(r domain.TokenReport) Request {
	return Request{
		Action:       ActionTokens,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		Cost:         r.Cost,
	}
}

func newRateLimitRequest(r domain.RateLimitReport) Request {
	return Request{Action: ActionRateLimit, Window: r.Window, ResetsAt: unixTime(r.ResetsAt)}
}

func newUsageRequest(r domain.UsageReport) Request {
	return Request{
		Action:           ActionUsage,
		FiveHourPct:      r.Usage.FiveHour.Percent,
		FiveHourResetsAt: unixTime(r.Usage.FiveHour.ResetsAt),
		SevenDayPct:      r.Usage.SevenDay.Percent,
		SevenDayResetsAt: unixTime(r.Usage.SevenDay.ResetsAt),
	}
}
