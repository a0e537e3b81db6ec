package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/repository"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func fixedClock(d civil.Date) func() time.Time {
	return func() time.Time { return d.In(time.UTC).Add(10 * time.Hour) }
}

type fakeSpaces struct {
	spaces map[int]*db.Space
	nextID int
}

func newFakeSpaces(spaces ...*db.Space) *fakeSpaces {
	f := &fakeSpaces{spaces: map[int]*db.Space{}, nextID: 100}
	for _, s := range spaces {
		f.spaces[s.ID] = s
	}
	return f
}

func (f *fakeSpaces) GetSpace(_ context.Context, id int) (*db.Space, error) {
	s, ok := f.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSpaces) CreateSpace(_ context.Context, s *db.Space) error {
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.spaces[s.ID] = &cp
	return nil
}

func (f *fakeSpaces) UpdateSpace(_ context.Context, s *db.Space) error {
	if _, ok := f.spaces[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	f.spaces[s.ID] = &cp
	return nil
}

func (f *fakeSpaces) DeleteSpace(_ context.Context, id int) error {
	if _, ok := f.spaces[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.spaces, id)
	return nil
}

func (f *fakeSpaces) SearchSpaces(_ context.Context, filter entities.SpaceFilter) ([]db.Space, int64, error) {
	var out []db.Space
	for _, s := range f.spaces {
		if filter.WorkspaceType != "" && s.WorkspaceType != filter.WorkspaceType {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings []db.Booking
	listErr  error
	lastList entities.BookingFilter
}

func (f *fakeBookings) active(spaceID int, from civil.Date) []db.Booking {
	var out []db.Booking
	for _, b := range f.bookings {
		if b.SpaceID == spaceID && b.Status.Active() && !b.EndDate.Before(from) {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeBookings) ListActiveBookings(_ context.Context, spaceID int, from civil.Date) ([]db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.active(spaceID, from), nil
}

func (f *fakeBookings) CreateIfAvailable(_ context.Context, b *db.Booking, check func([]db.Booking) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := check(f.active(b.SpaceID, b.StartDate)); err != nil {
		return err
	}
	b.ID = len(f.bookings) + 1
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeBookings) find(match func(db.Booking) bool) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if match(b) {
			cp := b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) GetByCode(_ context.Context, code string) (*db.Booking, error) {
	return f.find(func(b db.Booking) bool { return b.Code == code })
}

func (f *fakeBookings) GetByStripeSessionID(_ context.Context, id string) (*db.Booking, error) {
	return f.find(func(b db.Booking) bool { return b.StripeSessionID == id })
}

func (f *fakeBookings) GetByPaymentIntentID(_ context.Context, id string) (*db.Booking, error) {
	return f.find(func(b db.Booking) bool { return b.StripePaymentIntentID == id })
}

func (f *fakeBookings) update(id int, fn func(*db.Booking)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			fn(&f.bookings[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookings) SetStripeSession(_ context.Context, id int, sessionID string) error {
	return f.update(id, func(b *db.Booking) { b.StripeSessionID = sessionID })
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id int, status db.BookingStatus, paymentStatus string) error {
	return f.update(id, func(b *db.Booking) {
		b.Status = status
		if paymentStatus != "" {
			b.PaymentStatus = paymentStatus
		}
	})
}

func (f *fakeBookings) Confirm(_ context.Context, id int, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		b := &f.bookings[i]
		if b.ID != id || b.Status != db.BookingPending {
			continue
		}
		b.Status = db.BookingConfirmed
		b.PaymentStatus = db.PaymentSucceeded
		b.StripePaymentIntentID = paymentIntentID
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeBookings) ListBookings(_ context.Context, filter entities.BookingFilter) ([]db.Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	var out []db.Booking
	for _, b := range f.bookings {
		if filter.UserID != 0 && b.UserID != filter.UserID {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookings) get(code string) db.Booking {
	b, _ := f.GetByCode(context.Background(), code)
	return *b
}

type fakeCache struct {
	entries     map[int]cached
	invalidated []int
	failing     bool
}

type cached struct {
	asOf civil.Date
	view *entities.AvailabilityView
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[int]cached{}}
}

func (c *fakeCache) Get(_ context.Context, spaceID int, asOf civil.Date) (*entities.AvailabilityView, bool, error) {
	if c.failing {
		return nil, false, errors.New("redis down")
	}
	e, ok := c.entries[spaceID]
	if !ok || e.asOf != asOf {
		return nil, false, nil
	}
	return e.view, true, nil
}

func (c *fakeCache) Set(_ context.Context, spaceID int, asOf civil.Date, view *entities.AvailabilityView) error {
	if c.failing {
		return errors.New("redis down")
	}
	c.entries[spaceID] = cached{asOf: asOf, view: view}
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, spaceID int) error {
	c.invalidated = append(c.invalidated, spaceID)
	delete(c.entries, spaceID)
	return nil
}

type fakePayments struct {
	failCheckout bool
	sessions     int
	refunds      []string
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if p.failCheckout {
		return nil, errors.New("stripe unavailable")
	}
	p.sessions++
	id := "cs_test_" + req.BookingCode
	return &CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (p *fakePayments) RefundPayment(_ context.Context, paymentIntentID, sessionID string) error {
	if paymentIntentID != "" {
		p.refunds = append(p.refunds, paymentIntentID)
	} else {
		p.refunds = append(p.refunds, sessionID)
	}
	return nil
}

type notification struct {
	code   string
	status db.BookingStatus
}

type fakeNotifier struct {
	sent []notification
}

func (n *fakeNotifier) NotifyBooking(b db.Booking, _ *db.Space, status db.BookingStatus) {
	n.sent = append(n.sent, notification{code: b.Code, status: status})
}
