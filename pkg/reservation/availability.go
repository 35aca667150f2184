package reservation

import (
	"context"
	"time"

	"github.com/YNK0/ruvm/pkg/api"
)

// AvailabilityAPI is the slice of the gateway client the screen needs.
type AvailabilityAPI interface {
	Availability(ctx context.Context, spaceID, date string) ([]api.AvailabilityEntry, error)
}

// Entry is one booking shown on the availability screen.
type Entry struct {
	SpaceName string
	Location  string
	Start     time.Time
	End       time.Time
	Status    string
	UserName  string
}

// AvailabilityScreen queries one space's bookings for a calendar day.
// It remembers whether a search has run: an empty result reads differently
// from never having searched.
type AvailabilityScreen struct {
	api      AvailabilityAPI
	now      func() time.Time
	searched bool
	entries  []Entry
}

func NewAvailabilityScreen(a AvailabilityAPI, now func() time.Time) *AvailabilityScreen {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityScreen{api: a, now: now}
}

// Search runs the availability query for the given day. A zero date raises
// a warning without touching the network.
func (s *AvailabilityScreen) Search(ctx context.Context, spaceID string, date time.Time) ([]Entry, Notice) {
	if date.IsZero() {
		return nil, Notice{Message: "select a date first", Severity: SeverityWarning}
	}

	raw, err := s.api.Availability(ctx, spaceID, date.Format("2006-01-02"))
	if err != nil {
		return nil, Notice{Message: "could not fetch availability", Severity: SeverityError}
	}
	s.searched = true

	entries := make([]Entry, 0, len(raw))
	now := s.now()
	for _, b := range raw {
		e := Entry{
			SpaceName: "Deleted",
			UserName:  "Unknown",
			Start:     b.StartTime,
			End:       b.EndTime,
			Status:    b.Status,
		}
		if b.Space != nil {
			e.SpaceName = b.Space.Name
			e.Location = b.Space.Location
		}
		if b.User != nil {
			e.UserName = b.User.Name
		}
		if e.End.After(now) {
			entries = append(entries, e)
		}
	}
	s.entries = entries

	if len(entries) == 0 {
		return entries, Notice{Message: "no bookings for this date", Severity: SeverityInfo}
	}
	return entries, Notice{}
}

// Message distinguishes "never searched" from "searched, nothing to show".
func (s *AvailabilityScreen) Message() string {
	if s.searched && len(s.entries) == 0 {
		return "no bookings to show"
	}
	return ""
}

func (s *AvailabilityScreen) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
