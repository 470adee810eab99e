package bundle

// PackageView is a package with its current availability.
type PackageView struct {
	Package
	Availability AvailabilityResult `json:"availability"`
}

// ProceedResult is returned when the user may move on to scheduling.
type ProceedResult struct {
	Selection Selection `json:"selection"`
	NextStep  string    `json:"nextStep"`
}
