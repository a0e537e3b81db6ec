package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"deskhub/internal/db"
	"deskhub/internal/entities"
)

func d(month time.Month, day int) civil.Date {
	return civil.Date{Year: 2025, Month: month, Day: day}
}

func bookingBody(spaceID int, start, end string) string {
	return fmt.Sprintf(`{"spaceId":%d,"userName":"Ana","userEmail":"ana@example.com","startDate":%q,"endDate":%q}`, spaceID, start, end)
}

func TestCreateBookingReturnsCheckout(t *testing.T) {
	s := newTestServer(t)
	rec := s.do("POST", "/api/bookings", bookingBody(1, "2025-04-13", "2025-04-15"), s.token(t, 3, db.RoleRenter))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp entities.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BK1", resp.Code)
	assert.Equal(t, "cs_test_BK1", resp.SessionID)
	assert.NotEmpty(t, resp.URL)

	require.Len(t, s.bookings.bookings, 1)
	b := s.bookings.bookings[0]
	assert.Equal(t, db.BookingPending, b.Status)
	assert.Equal(t, int64(3*2500), b.TotalPrice)
	assert.Equal(t, 3, b.UserID)
}

func TestCreateBookingStatuses(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("EXIST", 9, d(time.April, 10), d(time.April, 12), db.BookingConfirmed)
	s.addBooking("GONE", 9, d(time.April, 20), d(time.April, 22), db.BookingCancelled)
	token := s.token(t, 3, db.RoleRenter)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing field", `{"spaceId":1,"userName":"Ana","userEmail":"ana@example.com","startDate":"2025-04-13"}`, http.StatusBadRequest},
		{"malformed json", `{"spaceId":`, http.StatusBadRequest},
		{"bad date", bookingBody(1, "13/04/2025", "2025-04-15"), http.StatusBadRequest},
		{"inverted range", bookingBody(1, "2025-04-15", "2025-04-13"), http.StatusBadRequest},
		{"start in the past", bookingBody(1, "2025-03-30", "2025-04-02"), http.StatusBadRequest},
		{"unknown space", bookingBody(42, "2025-04-13", "2025-04-15"), http.StatusNotFound},
		{"overlaps on the last day", bookingBody(1, "2025-04-12", "2025-04-14"), http.StatusConflict},
		{"cancelled booking does not block", bookingBody(1, "2025-04-20", "2025-04-21"), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do("POST", "/api/bookings", tt.body, token)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateBookingRequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do("POST", "/api/bookings", bookingBody(1, "2025-04-13", "2025-04-15"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/bookings", bookingBody(1, "2025-04-13", "2025-04-15"), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAvailability(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("MAY", 9, d(time.May, 1), d(time.May, 3), db.BookingPending)
	s.addBooking("OFF", 9, d(time.May, 10), d(time.May, 11), db.BookingCancelled)

	rec := s.do("GET", "/api/spaces/1/availability", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UnavailableDates []string `json:"unavailableDates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"2025-05-01", "2025-05-02", "2025-05-03"}, body.UnavailableDates)

	rec = s.do("GET", "/api/spaces/99/availability", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckAvailability(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("EXIST", 9, d(time.April, 10), d(time.April, 12), db.BookingConfirmed)

	rec := s.do("POST", "/api/spaces/1/availability/check", `{"startDate":"2025-04-12","endDate":"2025-04-14"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.AvailabilityCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.NotEmpty(t, resp.Message)

	rec = s.do("POST", "/api/spaces/1/availability/check", `{"startDate":"2025-04-13","endDate":"2025-04-15"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = entities.AvailabilityCheckResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)

	rec = s.do("POST", "/api/spaces/1/availability/check", `{"startDate":"2025-04-13"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingOfAnotherUserIsHidden(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("MINE", 3, d(time.April, 10), d(time.April, 12), db.BookingConfirmed)

	rec := s.do("GET", "/api/bookings/MINE", "", s.token(t, 3, db.RoleRenter))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("GET", "/api/bookings/MINE", "", s.token(t, 4, db.RoleRenter))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("GET", "/api/bookings/MINE", "", s.token(t, 1, db.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetBookingBySession(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("PAID", 3, d(time.April, 10), d(time.April, 12), db.BookingPending)

	rec := s.do("GET", "/api/bookings/session?session_id=cs_test_PAID", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PAID", resp.Code)

	rec = s.do("GET", "/api/bookings/session", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingFreesDates(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("MINE", 3, d(time.April, 10), d(time.April, 12), db.BookingPending)

	rec := s.do("DELETE", "/api/bookings/MINE", "", s.token(t, 3, db.RoleRenter))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, db.BookingCancelled, s.bookings.bookings[0].Status)

	rec = s.do("POST", "/api/bookings", bookingBody(1, "2025-04-11", "2025-04-11"), s.token(t, 5, db.RoleRenter))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("A", 3, d(time.April, 10), d(time.April, 12), db.BookingConfirmed)
	s.addBooking("B", 4, d(time.April, 14), d(time.April, 15), db.BookingPending)

	rec := s.do("GET", "/admin/bookings", "", s.token(t, 3, db.RoleRenter))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/admin/bookings?status=pending", "", s.token(t, 1, db.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	var list entities.BookingsList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, "B", list.Bookings[0].Code)

	rec = s.do("GET", "/admin/bookings?status=unknown", "", s.token(t, 1, db.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("DELETE", "/admin/bookings/A", "", s.token(t, 1, db.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	body := `{"email":"host@example.com","password":"s3cret-pass","fullName":"Hoa","role":"host"}`

	rec := s.do("POST", "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")

	rec = s.do("POST", "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do("POST", "/api/auth/register", `{"email":"x@example.com","password":"s3cret-pass","fullName":"X","role":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("POST", "/api/auth/login", `{"email":"host@example.com","password":"wrong-pass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do("POST", "/api/auth/login", `{"email":"host@example.com","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	claims, err := s.tokens.Parse(login.Token)
	require.NoError(t, err)
	assert.Equal(t, db.RoleHost, claims.Role)
}

func TestSpaceCRUD(t *testing.T) {
	s := newTestServer(t)
	host := s.token(t, 7, db.RoleHost)
	body := `{"title":"Quiet room","workspaceType":"Private Office","city":"Porto","capacity":4,"pricePerDay":9000,"currency":"eur"}`

	rec := s.do("POST", "/api/spaces", body, s.token(t, 3, db.RoleRenter))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("POST", "/api/spaces", body, host)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created db.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, db.WorkspacePrivateOffice, created.WorkspaceType)
	assert.Equal(t, 7, created.HostID)

	rec = s.do("GET", fmt.Sprintf("/api/spaces/%d", created.ID), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("GET", "/api/spaces?city=porto", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list entities.SpacesList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Spaces, 1)

	rec = s.do("DELETE", fmt.Sprintf("/api/spaces/%d", created.ID), "", s.token(t, 8, db.RoleHost))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("DELETE", fmt.Sprintf("/api/spaces/%d", created.ID), "", host)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("GET", "/api/spaces/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func signedEvent(t *testing.T, eventType, object string) (payload []byte, header string) {
	t.Helper()
	payload = []byte(fmt.Sprintf(`{"id":"evt_test","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return payload, signed.Header
}

func (s *testServer) postWebhook(payload []byte, header string) int {
	req := httptest.NewRequest("POST", "/api/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec.Code
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)
	payload, _ := signedEvent(t, "checkout.session.completed", `{"id":"cs_test_X","object":"checkout.session"}`)
	assert.Equal(t, http.StatusBadRequest, s.postWebhook(payload, "t=1,v1=deadbeef"))
}

func TestWebhookConfirmsBooking(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("PAY", 3, d(time.April, 10), d(time.April, 12), db.BookingPending)

	payload, header := signedEvent(t, "checkout.session.completed",
		`{"id":"cs_test_PAY","object":"checkout.session","payment_intent":"pi_123"}`)
	require.Equal(t, http.StatusOK, s.postWebhook(payload, header))

	b := s.bookings.bookings[0]
	assert.Equal(t, db.BookingConfirmed, b.Status)
	assert.Equal(t, db.PaymentSucceeded, b.PaymentStatus)
	assert.Equal(t, "pi_123", b.StripePaymentIntentID)

	// redelivery is a no-op
	assert.Equal(t, http.StatusOK, s.postWebhook(payload, header))
}

func TestWebhookExpiredSessionReleasesDates(t *testing.T) {
	s := newTestServer(t)
	s.addBooking("LATE", 3, d(time.April, 10), d(time.April, 12), db.BookingPending)

	payload, header := signedEvent(t, "checkout.session.expired", `{"id":"cs_test_LATE","object":"checkout.session"}`)
	require.Equal(t, http.StatusOK, s.postWebhook(payload, header))
	assert.Equal(t, db.BookingCancelled, s.bookings.bookings[0].Status)
}

func TestWebhookUnknownSessionIsAcknowledged(t *testing.T) {
	s := newTestServer(t)
	payload, header := signedEvent(t, "checkout.session.completed", `{"id":"cs_test_NOPE","object":"checkout.session"}`)
	assert.Equal(t, http.StatusOK, s.postWebhook(payload, header))
}
