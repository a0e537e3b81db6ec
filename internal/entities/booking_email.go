package entities

type BookingEmailData struct {
	UserName           string
	BookingCode        string
	SpaceTitle         string
	SpaceAddress       string
	StartDateFormatted string
	EndDateFormatted   string
	FirstDayHours      string
	TotalFormatted     string
	Status             string
	CurrentYear        int
}
