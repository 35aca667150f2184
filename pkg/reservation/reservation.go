// Package reservation implements the booking screens' rules: slot selection,
// submission, the "my reservations" list and cancellation, plus the
// per-space availability view.
package reservation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YNK0/ruvm/pkg/api"
	"github.com/YNK0/ruvm/pkg/session"
)

// SlotDuration is fixed: every reservation is exactly one hour.
const SlotDuration = 60 * time.Minute

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notice is the ephemeral message a screen shows; it is replaced by the
// next action, never persisted.
type Notice struct {
	Message  string
	Severity Severity
}

func (n Notice) Zero() bool { return n.Message == "" }

type State string

const (
	StateSelecting  State = "selecting"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
)

// API is the slice of the gateway client the workflow needs.
type API interface {
	CreateBooking(ctx context.Context, req api.CreateBookingRequest, idempotencyKey string) error
	Bookings(ctx context.Context, userID string) ([]api.BookingView, error)
	UpdateBookingStatus(ctx context.Context, bookingID, status string) error
}

// Item is one row of the reservations list.
type Item struct {
	BookingID string
	SpaceName string
	Location  string
	Start     time.Time
	End       time.Time
	Status    string
}

type Options struct {
	// HideCancelledOnReload applies the upcoming filter to the list reload
	// that follows a cancellation. Off by default: the cancelled row stays
	// visible so the user sees the transition.
	HideCancelledOnReload bool
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Workflow drives one reservation screen. Not safe for concurrent use except
// for Confirm, which serializes submissions itself.
type Workflow struct {
	api     API
	session *session.Store
	opts    Options

	mu      sync.Mutex
	state   State
	notice  Notice
	date    time.Time
	timeOfD time.Time
	dateSet bool
	timeSet bool
	items   []Item
}

func NewWorkflow(a API, s *session.Store, opts Options) *Workflow {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Workflow{api: a, session: s, opts: opts, state: StateSelecting}
}

// Slot combines a calendar date and a time of day into a one-hour interval.
// Seconds and below are zeroed; the date's location wins.
func Slot(date, timeOfDay time.Time) (start, end time.Time) {
	start = time.Date(
		date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0,
		date.Location(),
	)
	return start, start.Add(SlotDuration)
}

func (w *Workflow) SelectDate(d time.Time) {
	w.mu.Lock()
	w.date, w.dateSet = d, true
	w.mu.Unlock()
}

func (w *Workflow) SelectTime(t time.Time) {
	w.mu.Lock()
	w.timeOfD, w.timeSet = t, true
	w.mu.Unlock()
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Notice() Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

func (w *Workflow) ClearNotice() {
	w.mu.Lock()
	w.notice = Notice{}
	w.mu.Unlock()
}

// Items returns the list as of the last Load or Cancel.
func (w *Workflow) Items() []Item {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Item, len(w.items))
	copy(out, w.items)
	return out
}

// Confirm submits a reservation for spaceID. Without both a date and a time
// it raises a warning and issues no request. A confirm while one is already
// in flight is ignored. Each attempt carries a fresh idempotency key, so a
// retried attempt the backend already applied cannot double-book.
func (w *Workflow) Confirm(ctx context.Context, spaceID string) Notice {
	s, ok := w.session.Get()
	if !ok {
		return w.setNotice(Notice{Message: "not authenticated", Severity: SeverityError})
	}

	w.mu.Lock()
	if w.state == StateSubmitting {
		n := w.notice
		w.mu.Unlock()
		return n
	}
	if !w.dateSet || !w.timeSet {
		w.notice = Notice{Message: "please select a date and a time", Severity: SeverityWarning}
		n := w.notice
		w.mu.Unlock()
		return n
	}
	start, end := Slot(w.date, w.timeOfD)
	w.state = StateSubmitting
	w.mu.Unlock()

	err := w.api.CreateBooking(ctx, api.CreateBookingRequest{
		SpaceID:   spaceID,
		UserID:    s.UserID,
		StartTime: start,
		EndTime:   end,
	}, uuid.New().String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateSelecting
		w.notice = Notice{
			Message:  "the space may be unavailable, try another time",
			Severity: SeverityError,
		}
		return w.notice
	}
	w.state = StateConfirmed
	w.notice = Notice{Message: "reservation confirmed", Severity: SeveritySuccess}
	return w.notice
}

// Load fetches the user's bookings, keeps the ones still ending in the
// future and sorts them by start. The filter applies only here, at fetch
// time; rows are not re-evaluated afterwards.
func (w *Workflow) Load(ctx context.Context) ([]Item, error) {
	if err := w.session.Guard(); err != nil {
		return nil, err
	}
	s, _ := w.session.Get()

	views, err := w.api.Bookings(ctx, s.UserID)
	if err != nil {
		return nil, err
	}

	items := mapViews(views)
	items = Upcoming(items, w.opts.Now())
	sortByStart(items)

	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return items, nil
}

// Cancel transitions one booking to cancelled. An id that is not in the
// current list is a no-op. On success the list is refetched and re-sorted;
// unless HideCancelledOnReload is set, the reload skips the upcoming filter
// so the cancelled row confirms the transition. On failure the list stays
// untouched.
func (w *Workflow) Cancel(ctx context.Context, bookingID string) Notice {
	if err := w.session.Guard(); err != nil {
		return w.setNotice(Notice{Message: "not authenticated", Severity: SeverityError})
	}

	w.mu.Lock()
	known := false
	for _, it := range w.items {
		if it.BookingID == bookingID {
			known = true
			break
		}
	}
	w.mu.Unlock()
	if !known {
		return Notice{}
	}

	if err := w.api.UpdateBookingStatus(ctx, bookingID, api.StatusCancelled); err != nil {
		return w.setNotice(Notice{Message: "could not cancel the reservation", Severity: SeverityError})
	}

	s, _ := w.session.Get()
	views, err := w.api.Bookings(ctx, s.UserID)
	if err != nil {
		// cancelled remotely but the reload failed; keep the stale list
		return w.setNotice(Notice{Message: "reservation cancelled", Severity: SeveritySuccess})
	}

	items := mapViews(views)
	if w.opts.HideCancelledOnReload {
		items = Upcoming(items, w.opts.Now())
	}
	sortByStart(items)

	w.mu.Lock()
	w.items = items
	w.notice = Notice{Message: "reservation cancelled", Severity: SeveritySuccess}
	n := w.notice
	w.mu.Unlock()
	return n
}

func (w *Workflow) setNotice(n Notice) Notice {
	w.mu.Lock()
	w.notice = n
	w.mu.Unlock()
	return n
}

// Upcoming keeps items whose end is strictly after now.
func Upcoming(items []Item, now time.Time) []Item {
	out := items[:0]
	for _, it := range items {
		if it.End.After(now) {
			out = append(out, it)
		}
	}
	return out
}

func sortByStart(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start.Before(items[j].Start)
	})
}

func mapViews(views []api.BookingView) []Item {
	items := make([]Item, len(views))
	for i, v := range views {
		it := Item{
			BookingID: v.ID,
			Start:     v.StartTime,
			End:       v.EndTime,
			Status:    v.Status,
		}
		if v.Space != nil {
			it.SpaceName = v.Space.Name
			it.Location = v.Space.Location
		} else {
			it.SpaceName = "Deleted"
		}
		items[i] = it
	}
	return items
}
