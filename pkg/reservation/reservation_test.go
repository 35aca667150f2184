package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YNK0/ruvm/pkg/api"
	"github.com/YNK0/ruvm/pkg/session"
)

type fakeAPI struct {
	mu          sync.Mutex
	createCalls int
	keys        []string
	createErr   error
	block       chan struct{}

	bookings    []api.BookingView
	bookingsErr error
	listCalls   int

	statusIDs []string
	statusErr error
}

func (f *fakeAPI) CreateBooking(ctx context.Context, req api.CreateBookingRequest, key string) error {
	f.mu.Lock()
	f.createCalls++
	f.keys = append(f.keys, key)
	block := f.block
	err := f.createErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeAPI) Bookings(ctx context.Context, userID string) ([]api.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.bookings, f.bookingsErr
}

func (f *fakeAPI) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusIDs = append(f.statusIDs, bookingID)
	for i := range f.bookings {
		if f.bookings[i].ID == bookingID {
			f.bookings[i].Status = status
		}
	}
	return nil
}

func (f *fakeAPI) creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func loggedIn(t *testing.T) *session.Store {
	t.Helper()
	st := session.NewStore()
	require.NoError(t, st.Set(session.Session{Token: "tok", UserID: "u1", Name: "Test User", Role: "user"}))
	return st
}

func TestSlot(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+14", 14*3600),
		time.FixedZone("UTC-12", -12*3600),
		time.FixedZone("UTC+5:45", 5*3600+45*60),
	}

	for _, loc := range zones {
		date := time.Date(2026, 9, 15, 0, 0, 0, 0, loc)
		tod := time.Date(2000, 1, 1, 10, 30, 45, 999, time.UTC) // seconds and below must be dropped

		start, end := Slot(date, tod)

		assert.Equal(t, 2026, start.Year())
		assert.Equal(t, time.September, start.Month())
		assert.Equal(t, 15, start.Day())
		assert.Equal(t, 10, start.Hour())
		assert.Equal(t, 30, start.Minute())
		assert.Equal(t, 0, start.Second())
		assert.Equal(t, 0, start.Nanosecond())
		assert.Equal(t, loc, start.Location())
		assert.Equal(t, 60*time.Minute, end.Sub(start), "zone %s", loc)
	}
}

func TestSlotCrossesMidnight(t *testing.T) {
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	tod := time.Date(2000, 1, 1, 23, 30, 0, 0, time.UTC)

	start, end := Slot(date, tod)

	assert.Equal(t, 15, start.Day())
	assert.Equal(t, 16, end.Day())
	assert.Equal(t, 60*time.Minute, end.Sub(start))
}

func TestConfirmWithoutDateOrTime(t *testing.T) {
	tests := []struct {
		name     string
		setDate  bool
		setTime  bool
	}{
		{"nothing selected", false, false},
		{"only date", true, false},
		{"only time", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAPI{}
			w := NewWorkflow(f, loggedIn(t), Options{})
			if tt.setDate {
				w.SelectDate(time.Now().AddDate(0, 0, 1))
			}
			if tt.setTime {
				w.SelectTime(time.Date(2000, 1, 1, 10, 0, 0, 0, time.UTC))
			}

			n := w.Confirm(context.Background(), "sp1")

			assert.Equal(t, SeverityWarning, n.Severity)
			assert.Equal(t, 0, f.creates(), "no request may be issued")
			assert.Equal(t, StateSelecting, w.State())
		})
	}
}

func TestConfirmSuccess(t *testing.T) {
	f := &fakeAPI{}
	w := NewWorkflow(f, loggedIn(t), Options{})
	w.SelectDate(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	w.SelectTime(time.Date(2000, 1, 1, 10, 0, 0, 0, time.UTC))

	n := w.Confirm(context.Background(), "sp1")

	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Equal(t, StateConfirmed, w.State())
	assert.Equal(t, 1, f.creates())
}

func TestConfirmFailureReturnsToSelecting(t *testing.T) {
	f := &fakeAPI{createErr: errors.New("409")}
	w := NewWorkflow(f, loggedIn(t), Options{})
	w.SelectDate(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	w.SelectTime(time.Date(2000, 1, 1, 10, 0, 0, 0, time.UTC))

	n := w.Confirm(context.Background(), "sp1")

	assert.Equal(t, SeverityError, n.Severity)
	assert.Equal(t, StateSelecting, w.State(), "failed submit returns to selection for a retry")

	// retry carries a fresh idempotency key
	f.mu.Lock()
	f.createErr = nil
	f.mu.Unlock()
	w.Confirm(context.Background(), "sp1")

	require.Len(t, f.keys, 2)
	assert.NotEqual(t, f.keys[0], f.keys[1])
	assert.NotEmpty(t, f.keys[0])
}

func TestConfirmWhileInFlightIsIgnored(t *testing.T) {
	release := make(chan struct{})
	f := &fakeAPI{block: release}
	w := NewWorkflow(f, loggedIn(t), Options{})
	w.SelectDate(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	w.SelectTime(time.Date(2000, 1, 1, 10, 0, 0, 0, time.UTC))

	done := make(chan Notice, 1)
	go func() { done <- w.Confirm(context.Background(), "sp1") }()

	require.Eventually(t, func() bool { return w.State() == StateSubmitting },
		time.Second, 5*time.Millisecond)

	w.Confirm(context.Background(), "sp1")
	assert.Equal(t, 1, f.creates(), "second confirm while submitting issues no request")

	close(release)
	n := <-done
	assert.Equal(t, SeveritySuccess, n.Severity)
}

func TestConfirmWithoutSession(t *testing.T) {
	f := &fakeAPI{}
	w := NewWorkflow(f, session.NewStore(), Options{})
	w.SelectDate(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	w.SelectTime(time.Date(2000, 1, 1, 10, 0, 0, 0, time.UTC))

	n := w.Confirm(context.Background(), "sp1")

	assert.Equal(t, SeverityError, n.Severity)
	assert.Equal(t, 0, f.creates())
}

func view(id string, start, end time.Time, status string) api.BookingView {
	return api.BookingView{
		ID:        id,
		Space:     &api.SpaceRef{Name: "Lab 1", Location: "Building A"},
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestLoadFiltersAndSorts(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{bookings: []api.BookingView{
		view("b-later", now.Add(48*time.Hour), now.Add(49*time.Hour), "confirmed"),
		view("b-past", now.Add(-2*time.Hour), now.Add(-1*time.Hour), "confirmed"),
		view("b-soon", now.Add(1*time.Hour), now.Add(2*time.Hour), "confirmed"),
		view("b-ends-now", now.Add(-1*time.Hour), now, "confirmed"),
	}}
	w := NewWorkflow(f, loggedIn(t), Options{Now: func() time.Time { return now }})

	items, err := w.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2, "past and exactly-ending entries are dropped")
	assert.Equal(t, "b-soon", items[0].BookingID)
	assert.Equal(t, "b-later", items[1].BookingID)
	assert.Equal(t, "Lab 1", items[0].SpaceName)
}

func TestLoadMapsDeletedSpace(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	v := view("b1", now.Add(time.Hour), now.Add(2*time.Hour), "confirmed")
	v.Space = nil
	f := &fakeAPI{bookings: []api.BookingView{v}}
	w := NewWorkflow(f, loggedIn(t), Options{Now: func() time.Time { return now }})

	items, err := w.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Deleted", items[0].SpaceName)
	assert.Equal(t, "", items[0].Location)
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{bookings: []api.BookingView{
		view("b1", now.Add(time.Hour), now.Add(2*time.Hour), "confirmed"),
	}}
	w := NewWorkflow(f, loggedIn(t), Options{Now: func() time.Time { return now }})
	_, err := w.Load(context.Background())
	require.NoError(t, err)

	n := w.Cancel(context.Background(), "nope")

	assert.True(t, n.Zero())
	assert.Empty(t, f.statusIDs)
	assert.Len(t, w.Items(), 1, "list untouched")
}

func TestCancelReloadsWithoutUpcomingFilter(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{bookings: []api.BookingView{
		view("b1", now.Add(time.Hour), now.Add(2*time.Hour), "confirmed"),
		view("b-past", now.Add(-3*time.Hour), now.Add(-2*time.Hour), "confirmed"),
	}}
	w := NewWorkflow(f, loggedIn(t), Options{Now: func() time.Time { return now }})
	_, err := w.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, w.Items(), 1)

	n := w.Cancel(context.Background(), "b1")

	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Equal(t, []string{"b1"}, f.statusIDs)

	items := w.Items()
	require.Len(t, items, 2, "reload after cancel skips the upcoming filter")
	assert.Equal(t, "b-past", items[0].BookingID, "still sorted by start")
	assert.Equal(t, "cancelled", items[1].Status)
}

func TestCancelReloadWithHideCancelledOption(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{bookings: []api.BookingView{
		view("b1", now.Add(time.Hour), now.Add(2*time.Hour), "confirmed"),
		view("b-past", now.Add(-3*time.Hour), now.Add(-2*time.Hour), "confirmed"),
	}}
	w := NewWorkflow(f, loggedIn(t), Options{
		Now:                   func() time.Time { return now },
		HideCancelledOnReload: true,
	})
	_, err := w.Load(context.Background())
	require.NoError(t, err)

	w.Cancel(context.Background(), "b1")

	items := w.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].BookingID)
}

func TestCancelFailureKeepsList(t *testing.T) {
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{bookings: []api.BookingView{
		view("b1", now.Add(time.Hour), now.Add(2*time.Hour), "confirmed"),
	}}
	w := NewWorkflow(f, loggedIn(t), Options{Now: func() time.Time { return now }})
	_, err := w.Load(context.Background())
	require.NoError(t, err)
	f.statusErr = errors.New("boom")

	n := w.Cancel(context.Background(), "b1")

	assert.Equal(t, SeverityError, n.Severity)
	items := w.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "confirmed", items[0].Status, "prior list left untouched")
}
