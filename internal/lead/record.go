package lead

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Size is the shopper's everyday garment size.
type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	Size2XL Size = "2XL"
	Size3XL Size = "3XL"
)

// Sizes lists the accepted sizes in display order.
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, Size2XL, Size3XL}

// Fit is the preferred cut.
type Fit string

const (
	FitRegular  Fit = "regular"
	FitOversize Fit = "oversize"
	FitCropped  Fit = "cropped"
	FitRelaxed  Fit = "relaxed"
)

// Fits lists the accepted fits in display order.
var Fits = []Fit{FitRegular, FitOversize, FitCropped, FitRelaxed}

// DateLayout is the form encoding of BirthDate.
const DateLayout = "2006-01-02"

const maxFieldLen = 200

var (
	ErrMissingName    = errors.New("full name is required")
	ErrMissingEmail   = errors.New("email is required")
	ErrInvalidEmail   = errors.New("email is invalid")
	ErrMissingPhone   = errors.New("phone is required")
	ErrInvalidSize    = errors.New("size is not recognised")
	ErrInvalidFit     = errors.New("fit is not recognised")
	ErrInvalidBirth   = errors.New("date of birth is invalid")
	ErrConsentMissing = errors.New("consent is required")
	ErrFieldTooLong   = errors.New("field is too long")
)

// Record is what the capture form hands back.
type Record struct {
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Occupation string    `json:"occupation,omitempty"`
	Address    string    `json:"address,omitempty"`
	Gender     string    `json:"gender,omitempty"`
	Religion   string    `json:"religion,omitempty"`
	BirthDate  time.Time `json:"birthDate,omitempty"`
	Size       Size      `json:"size"`
	Fit        Fit       `json:"fit"`
	Consent    bool      `json:"consent"`
}

// Age returns full years between BirthDate and today, or 0 when unknown.
func (r Record) Age(today time.Time) int {
	if r.BirthDate.IsZero() {
		return 0
	}
	age := today.Year() - r.BirthDate.Year()
	if today.Month() < r.BirthDate.Month() ||
		(today.Month() == r.BirthDate.Month() && today.Day() < r.BirthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// ParseSize accepts sizes case-insensitively.
func ParseSize(v string) (Size, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, s := range Sizes {
		if string(s) == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSize, v)
}

// ParseFit accepts fits case-insensitively.
func ParseFit(v string) (Fit, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, f := range Fits {
		if string(f) == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFit, v)
}

// ParseForm builds a Record from submitted form values. Name, email, phone
// and consent are required; size and fit must come from the fixed sets.
func ParseForm(form url.Values, today time.Time) (Record, error) {
	rec := Record{
		FullName:   field(form, "full_name"),
		Email:      field(form, "email"),
		Phone:      field(form, "phone"),
		Occupation: field(form, "occupation"),
		Address:    field(form, "address"),
		Gender:     field(form, "gender"),
		Religion:   field(form, "religion"),
		Consent:    checked(form.Get("consent")),
	}
	for _, v := range []string{rec.FullName, rec.Email, rec.Phone, rec.Occupation, rec.Address, rec.Gender, rec.Religion} {
		if utf8.RuneCountInString(v) > maxFieldLen {
			return Record{}, ErrFieldTooLong
		}
	}
	if rec.FullName == "" {
		return Record{}, ErrMissingName
	}
	if rec.Email == "" {
		return Record{}, ErrMissingEmail
	}
	if _, err := mail.ParseAddress(rec.Email); err != nil {
		return Record{}, ErrInvalidEmail
	}
	if rec.Phone == "" {
		return Record{}, ErrMissingPhone
	}

	size, err := ParseSize(form.Get("size"))
	if err != nil {
		return Record{}, err
	}
	rec.Size = size
	fit, err := ParseFit(form.Get("fit"))
	if err != nil {
		return Record{}, err
	}
	rec.Fit = fit

	if dob := field(form, "birth_date"); dob != "" {
		t, err := time.Parse(DateLayout, dob)
		if err != nil || t.After(today) {
			return Record{}, ErrInvalidBirth
		}
		rec.BirthDate = t
	}
	if !rec.Consent {
		return Record{}, ErrConsentMissing
	}
	return rec, nil
}

func field(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
