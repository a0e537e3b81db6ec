package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"deskhub/internal/db"
	"deskhub/internal/entities"
)

//go:embed templates/booking_email.html
var templateFS embed.FS

var bookingEmailTmpl = template.Must(template.ParseFS(templateFS, "templates/booking_email.html"))

// Notifier tells renters about booking status changes.
type Notifier interface {
	NotifyBooking(b db.Booking, space *db.Space, status db.BookingStatus)
}

type SenderConfig struct {
	SendGridAPIKey   string
	FromEmail        string
	FromName         string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

type SenderService struct {
	cfg      SenderConfig
	sendgrid *sendgrid.Client
	twilio   *twilio.RestClient
}

// NewSenderService builds the email and SMS clients for the credentials that
// are present. A channel without credentials is skipped when notifying.
func NewSenderService(cfg SenderConfig) *SenderService {
	s := &SenderService{cfg: cfg}
	if cfg.FromName == "" {
		s.cfg.FromName = "deskhub"
	}
	if cfg.SendGridAPIKey != "" && cfg.FromEmail != "" {
		s.sendgrid = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	} else {
		log.Println("WARNING: SendGrid is not configured, booking emails will not be sent")
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		s.twilio = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   cfg.TwilioAccountSID,
			Password:   cfg.TwilioAuthToken,
			AccountSid: cfg.TwilioAccountSID,
		})
	} else {
		log.Println("WARNING: Twilio is not configured, booking SMS will not be sent")
	}
	return s
}

func (s *SenderService) NotifyBooking(b db.Booking, space *db.Space, status db.BookingStatus) {
	s.SendBookingEmail(b, space, status)
	s.SendBookingSMS(b, status)
}

func statusWord(status db.BookingStatus) string {
	return strings.ToLower(string(status))
}

func formatMoney(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}

func bookingEmailData(b db.Booking, space *db.Space, status db.BookingStatus, now time.Time) entities.BookingEmailData {
	data := entities.BookingEmailData{
		UserName:           b.UserName,
		BookingCode:        b.Code,
		StartDateFormatted: b.StartDate.In(time.UTC).Format("Mon 02 Jan 2006"),
		EndDateFormatted:   b.EndDate.In(time.UTC).Format("Mon 02 Jan 2006"),
		TotalFormatted:     formatMoney(b.TotalPrice, b.Currency),
		Status:             statusWord(status),
		CurrentYear:        now.Year(),
	}
	if space != nil {
		data.SpaceTitle = space.Title
		data.SpaceAddress = strings.TrimSpace(space.Address + ", " + space.City)
		data.FirstDayHours = dayHours(space.Availability, b)
	}
	return data
}

// dayHours describes the opening hours on the first day of the booking, or
// returns "" when the space publishes none for that weekday.
func dayHours(a db.WeeklyAvailability, b db.Booking) string {
	hours, ok := a.On(b.StartDate.In(time.UTC).Weekday())
	if !ok {
		return ""
	}
	if hours.Closed || !hours.Enabled {
		return "closed"
	}
	return hours.OpenTime + " - " + hours.CloseTime
}

func renderBookingEmail(data entities.BookingEmailData) (subject, plain, html string, err error) {
	subject = fmt.Sprintf("Your deskhub booking is %s - Code: %s", data.Status, data.BookingCode)
	plain = fmt.Sprintf(
		"Hello %s,\n\nYour booking is %s.\n\n"+
			"Booking code: %s\n"+
			"Space: %s\n"+
			"Address: %s\n"+
			"From: %s\n"+
			"To: %s\n"+
			"Total: %s\n\n"+
			"Thank you for booking with deskhub.",
		data.UserName, data.Status, data.BookingCode, data.SpaceTitle, data.SpaceAddress,
		data.StartDateFormatted, data.EndDateFormatted, data.TotalFormatted,
	)
	if data.FirstDayHours != "" {
		plain = strings.Replace(plain, "Total:", "Hours on your first day: "+data.FirstDayHours+"\nTotal:", 1)
	}
	var buf bytes.Buffer
	if err := bookingEmailTmpl.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("rendering booking email: %w", err)
	}
	return subject, plain, buf.String(), nil
}

// SendBookingEmail renders the email and sends it in the background.
func (s *SenderService) SendBookingEmail(b db.Booking, space *db.Space, status db.BookingStatus) {
	if s.sendgrid == nil || b.UserEmail == "" {
		return
	}
	subject, plain, html, err := renderBookingEmail(bookingEmailData(b, space, status, time.Now()))
	if err != nil {
		log.Printf("ALERT: %v", err)
		return
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(b.UserName, b.UserEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	go func(code string) {
		response, err := s.sendgrid.Send(message)
		if err != nil {
			log.Printf("ALERT (async): sending email for booking %s failed: %v", code, err)
			return
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			log.Printf("ALERT (async): SendGrid returned %d for booking %s: %s", response.StatusCode, code, response.Body)
			return
		}
		log.Printf("Email for booking %s sent to %s", code, b.UserEmail)
	}(b.Code)
}

func bookingSMSText(b db.Booking, status db.BookingStatus) string {
	return fmt.Sprintf("deskhub: booking %s is %s.\nDates: %s to %s.\nMore details in your email.",
		b.Code, statusWord(status), b.StartDate, b.EndDate)
}

func (s *SenderService) SendBookingSMS(b db.Booking, status db.BookingStatus) {
	if s.twilio == nil || b.UserPhone == "" {
		return
	}
	if !strings.HasPrefix(b.UserPhone, "+") {
		log.Printf("WARNING: phone number %q is not in E.164 format, SMS may fail", b.UserPhone)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(b.UserPhone)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(bookingSMSText(b, status))

	resp, err := s.twilio.Api.CreateMessage(params)
	if err != nil {
		log.Printf("ALERT: sending SMS for booking %s failed: %v", b.Code, err)
		return
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("SMS for booking %s sent, SID %s", b.Code, *resp.Sid)
	}
}
