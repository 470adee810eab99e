package booking

// MonthView is one month of the calendar grid.
type MonthView struct {
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Selection Selection  `json:"selection"`
	Days      []DayState `json:"days"`
}

// NextResult is returned once the dates are accepted.
type NextResult struct {
	FormData FormData `json:"bookingFormData"`
	NextStep string   `json:"nextStep"`
}

// BookedDatesResponse for GET /schedule/booked-dates
type BookedDatesResponse struct {
	Dates []string `json:"dates"`
}

// DateClickRequest for POST /schedule/click
type DateClickRequest struct {
	Date string `json:"date" validate:"required,calendar_date"`
}

// MonthQuery for GET /schedule/calendar
type MonthQuery struct {
	Year  int `json:"year" validate:"gte=1970,lte=9999"`
	Month int `json:"month" validate:"gte=1,lte=12"`
}
