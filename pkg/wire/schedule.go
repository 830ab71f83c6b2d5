package wire

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// Validate checks the request and returns when it would first run, measured
// from now.
func (r *ScheduledMessageRequest) Validate(now time.Time) (time.Time, error) {
	if strings.TrimSpace(r.Name) == "" {
		return time.Time{}, fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	}
	if r.SavedMessageID == "" {
		return time.Time{}, fmt.Errorf("%w: saved_message_id is required", ErrInvalidSchedule)
	}
	if r.ChannelID == 0 {
		return time.Time{}, fmt.Errorf("%w: channel_id is required", ErrInvalidSchedule)
	}
	if r.EndAt != nil && !r.EndAt.After(r.StartAt) {
		return time.Time{}, fmt.Errorf("%w: end_at must be after start_at", ErrInvalidSchedule)
	}

	loc := time.UTC
	if r.CronTimezone != "" {
		l, err := time.LoadLocation(r.CronTimezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, r.CronTimezone)
		}
		loc = l
	}

	if r.OnlyOnce {
		if r.StartAt.IsZero() || !r.StartAt.After(now) {
			return time.Time{}, fmt.Errorf("%w: start_at must be in the future", ErrInvalidSchedule)
		}
		return r.StartAt, nil
	}

	if !gronx.IsValid(r.CronExpression) {
		return time.Time{}, fmt.Errorf("%w: bad cron expression %q", ErrInvalidSchedule, r.CronExpression)
	}
	from := now
	if r.StartAt.After(from) {
		from = r.StartAt
	}
	next, err := gronx.NextTickAfter(r.CronExpression, from.In(loc), false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if r.EndAt != nil && next.After(*r.EndAt) {
		return time.Time{}, fmt.Errorf("%w: never runs before end_at", ErrInvalidSchedule)
	}
	return next.UTC(), nil
}
