package api

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"deskhub/internal/auth"
	"deskhub/internal/db"
	"deskhub/internal/entities"
	"deskhub/internal/repository"
	"deskhub/internal/service"
)

const (
	testSecret        = "test-secret"
	testWebhookSecret = "whsec_test"
)

var testToday = civil.Date{Year: 2025, Month: time.April, Day: 1}

func testClock() time.Time {
	return testToday.In(time.UTC).Add(9 * time.Hour)
}

type memSpaces struct {
	spaces map[int]*db.Space
}

func (m *memSpaces) GetSpace(_ context.Context, id int) (*db.Space, error) {
	s, ok := m.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSpaces) CreateSpace(_ context.Context, s *db.Space) error {
	s.ID = len(m.spaces) + 1
	cp := *s
	m.spaces[s.ID] = &cp
	return nil
}

func (m *memSpaces) UpdateSpace(_ context.Context, s *db.Space) error {
	if _, ok := m.spaces[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.spaces[s.ID] = &cp
	return nil
}

func (m *memSpaces) DeleteSpace(_ context.Context, id int) error {
	if _, ok := m.spaces[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.spaces, id)
	return nil
}

func (m *memSpaces) SearchSpaces(_ context.Context, f entities.SpaceFilter) ([]db.Space, int64, error) {
	out := []db.Space{}
	for _, s := range m.spaces {
		if f.City != "" && !strings.EqualFold(s.City, f.City) {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type memBookings struct {
	bookings []db.Booking
}

func (m *memBookings) active(spaceID int, from civil.Date) []db.Booking {
	var out []db.Booking
	for _, b := range m.bookings {
		if b.SpaceID == spaceID && b.Status.Active() && !b.EndDate.Before(from) {
			out = append(out, b)
		}
	}
	return out
}

func (m *memBookings) ListActiveBookings(_ context.Context, spaceID int, from civil.Date) ([]db.Booking, error) {
	return m.active(spaceID, from), nil
}

func (m *memBookings) CreateIfAvailable(_ context.Context, b *db.Booking, check func([]db.Booking) error) error {
	if err := check(m.active(b.SpaceID, b.StartDate)); err != nil {
		return err
	}
	b.ID = len(m.bookings) + 1
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *memBookings) find(match func(db.Booking) bool) (*db.Booking, error) {
	for _, b := range m.bookings {
		if match(b) {
			cp := b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memBookings) GetByCode(_ context.Context, code string) (*db.Booking, error) {
	return m.find(func(b db.Booking) bool { return b.Code == code })
}

func (m *memBookings) GetByStripeSessionID(_ context.Context, id string) (*db.Booking, error) {
	return m.find(func(b db.Booking) bool { return b.StripeSessionID == id })
}

func (m *memBookings) GetByPaymentIntentID(_ context.Context, id string) (*db.Booking, error) {
	return m.find(func(b db.Booking) bool { return b.StripePaymentIntentID == id })
}

func (m *memBookings) update(id int, fn func(*db.Booking)) error {
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			fn(&m.bookings[i])
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memBookings) SetStripeSession(_ context.Context, id int, sessionID string) error {
	return m.update(id, func(b *db.Booking) { b.StripeSessionID = sessionID })
}

func (m *memBookings) UpdateStatus(_ context.Context, id int, status db.BookingStatus, paymentStatus string) error {
	return m.update(id, func(b *db.Booking) {
		b.Status = status
		if paymentStatus != "" {
			b.PaymentStatus = paymentStatus
		}
	})
}

func (m *memBookings) Confirm(_ context.Context, id int, paymentIntentID string) error {
	for i := range m.bookings {
		b := &m.bookings[i]
		if b.ID == id && b.Status == db.BookingPending {
			b.Status = db.BookingConfirmed
			b.PaymentStatus = db.PaymentSucceeded
			b.StripePaymentIntentID = paymentIntentID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memBookings) ListBookings(_ context.Context, f entities.BookingFilter) ([]db.Booking, int64, error) {
	var out []db.Booking
	for _, b := range m.bookings {
		if f.UserID != 0 && b.UserID != f.UserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

type stubPayments struct{}

func (stubPayments) CreateCheckoutSession(_ context.Context, req service.CheckoutRequest) (*service.CheckoutSession, error) {
	id := "cs_test_" + req.BookingCode
	return &service.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (stubPayments) RefundPayment(context.Context, string, string) error {
	return nil
}

type memAccounts struct {
	accounts []*db.Account
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*db.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) Create(_ context.Context, a *db.Account) error {
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return repository.ErrDuplicate
		}
	}
	a.ID = len(m.accounts) + 1
	m.accounts = append(m.accounts, a)
	return nil
}

type testServer struct {
	router   *mux.Router
	tokens   *auth.TokenManager
	spaces   *memSpaces
	bookings *memBookings
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	spaces := &memSpaces{spaces: map[int]*db.Space{
		1: {ID: 1, HostID: 7, Title: "Corner desk", WorkspaceType: db.WorkspaceDesk, City: "Lisbon", PricePerDay: 2500, Currency: "eur"},
	}}
	bookings := &memBookings{}

	availability := service.NewAvailabilityService(spaces, bookings, nil)
	availability.Now = testClock
	bookingSvc := service.NewBookingService(spaces, bookings, availability, stubPayments{}, nil)
	bookingSvc.Now = testClock
	n := 0
	bookingSvc.NewCode = func() string {
		n++
		return "BK" + strconv.Itoa(n)
	}
	spaceSvc := service.NewSpaceService(spaces, availability)
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	router := NewRouter(Handlers{
		Auth:     NewAuthHandler(service.NewAccountService(&memAccounts{}, tokens)),
		Spaces:   NewSpaceHandler(spaceSvc, availability),
		Bookings: NewBookingHandler(bookingSvc),
		Admin:    NewAdminHandler(service.NewAdminService(bookingSvc)),
		Stripe:   NewStripeWebhookHandler(testWebhookSecret, bookingSvc),
	}, tokens)

	return &testServer{router: router, tokens: tokens, spaces: spaces, bookings: bookings}
}

func (s *testServer) token(t *testing.T, id int, role db.Role) string {
	t.Helper()
	tok, err := s.tokens.Issue(&db.Account{ID: id, Email: "user@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) addBooking(code string, userID int, start, end civil.Date, status db.BookingStatus) {
	s.bookings.bookings = append(s.bookings.bookings, db.Booking{
		ID:              len(s.bookings.bookings) + 1,
		Code:            code,
		SpaceID:         1,
		UserID:          userID,
		StartDate:       start,
		EndDate:         end,
		Status:          status,
		StripeSessionID: "cs_test_" + code,
		PaymentStatus:   db.PaymentPending,
	})
}
