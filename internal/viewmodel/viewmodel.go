package viewmodel

// Option is one choice in a select or radio group.
type Option struct {
	Value string
	Label string
}

// HomePage holds data for the landing page template.
type HomePage struct {
	Title     string
	Brand     string
	WheelSVG  string
	Panel     PhasePanel
	Prizes    []PrizeEntry
	Consent   ConsentBanner
	StreamURL string
}

// PrizeEntry is a legend line under the wheel.
type PrizeEntry struct {
	Label string
	Fill  string
}

// ConsentBanner holds data for the cookie banner.
type ConsentBanner struct {
	Key     string
	Visible bool
}

// PhasePanel holds data for the panel under the wheel. Exactly one of its
// states renders, chosen by Phase.
type PhasePanel struct {
	Phase          string
	Rotation       float64
	SpinDurationMs int64
	Prize          string
	PrizeFill      string
	RewardCode     string
	Claimant       string
	VoucherURL     string
	Form           LeadForm
}

// LeadForm holds the capture form's options, previous values and error.
type LeadForm struct {
	Error      string
	Sizes      []Option
	Fits       []Option
	FullName   string
	Email      string
	Phone      string
	Occupation string
	Address    string
	Gender     string
	Religion   string
	BirthDate  string
	Size       string
	Fit        string
	Consent    bool
}
