package validation

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/i18n"
	"github.com/goliatone/go-formflow/pkg/values"
)

// Date message categories, looked up under errors.date.<category>.
const (
	DateRequired   = "required"
	DateMissingOne = "missingOne"
	DateMissingTwo = "missingTwo"
	DateFormat     = "format"
	DateRange      = "range"
	DateInvalid    = "invalid"
	DateFuture     = "futureDate"
)

var defaultDateMessages = map[string]string{
	DateRequired:   "Enter the date",
	DateMissingOne: "Date must include a {{part}}",
	DateMissingTwo: "Date must include a {{first}} and {{second}}",
	DateFormat:     "Date must only include numbers",
	DateRange:      "Date must be a real date",
	DateInvalid:    "Date must be a real date",
	DateFuture:     "Date must be in the past",
}

// DateOptions configures ValidateDate.
type DateOptions struct {
	Required     bool
	NoFutureDate bool
	// Now defaults to time.Now.
	Now       func() time.Time
	Localizer i18n.Localizer
	// Translations is consulted before the localizer for the future date
	// message only.
	Translations map[string]string
	// Field is the field path used for per-field message keys.
	Field string
	// Message overrides the default for a completely missing date.
	Message string
}

// ValidateDate checks the three parts of a date input in a fixed order:
// missing parts, format, range, calendar validity, then the future date rule.
// The first failing check is reported.
func ValidateDate(day, month, year string, opts DateOptions) *FieldError {
	parts := map[string]string{
		values.PartDay:   strings.TrimSpace(day),
		values.PartMonth: strings.TrimSpace(month),
		values.PartYear:  strings.TrimSpace(year),
	}

	var missing []string
	for _, part := range values.DateParts() {
		if parts[part] == "" {
			missing = append(missing, part)
		}
	}
	if len(missing) == 3 && !opts.Required {
		return nil
	}

	msg := dateMessages{opts: opts}
	switch len(missing) {
	case 0:
	case 1:
		return &FieldError{
			Message:        msg.get(DateMissingOne, map[string]any{"part": msg.part(missing[0])}),
			ErroneousParts: missing,
		}
	case 2:
		return &FieldError{
			Message: msg.get(DateMissingTwo, map[string]any{
				"first":  msg.part(missing[0]),
				"second": msg.part(missing[1]),
			}),
			ErroneousParts: missing,
		}
	default:
		return &FieldError{Message: msg.required(), ErroneousParts: missing}
	}

	if bad := failing(parts, validFormat); len(bad) > 0 {
		return &FieldError{Message: msg.get(DateFormat, nil), ErroneousParts: bad}
	}
	if bad := failing(parts, inRange); len(bad) > 0 {
		return &FieldError{Message: msg.get(DateRange, nil), ErroneousParts: bad}
	}

	d, _ := strconv.Atoi(parts[values.PartDay])
	m, _ := strconv.Atoi(parts[values.PartMonth])
	y, _ := strconv.Atoi(parts[values.PartYear])
	if d > DaysIn(m, y) {
		return &FieldError{Message: msg.get(DateInvalid, nil), ErroneousParts: []string{values.PartDay}}
	}

	if opts.NoFutureDate {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		today := now()
		today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
		date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, today.Location())
		if !date.Before(today) {
			return &FieldError{Message: msg.future(), ErroneousParts: values.DateParts()}
		}
	}
	return nil
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && year%100 != 0 || year%400 == 0
}

// DaysIn returns the number of days in month of year, or 0 for an invalid
// month.
func DaysIn(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func failing(parts map[string]string, check func(part, raw string) bool) []string {
	var out []string
	for _, part := range values.DateParts() {
		if !check(part, parts[part]) {
			out = append(out, part)
		}
	}
	return out
}

func validFormat(part, raw string) bool {
	limit := 2
	if part == values.PartYear {
		limit = 4
	}
	if len(raw) > limit {
		return false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func inRange(part, raw string) bool {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	switch part {
	case values.PartDay:
		return n >= 1 && n <= 31
	case values.PartMonth:
		return n >= 1 && n <= 12
	default:
		return n >= 1 && n <= 9999 && !strings.HasPrefix(raw, "0")
	}
}

type dateMessages struct {
	opts DateOptions
}

func (m dateMessages) get(category string, params map[string]any) string {
	if m.opts.Field != "" {
		if msg, ok := m.opts.Localizer.Text("errors."+m.opts.Field+"."+category, params); ok {
			return msg
		}
	}
	if msg, ok := m.opts.Localizer.Text("errors.date."+category, params); ok {
		return msg
	}
	return i18n.Interpolate(defaultDateMessages[category], params)
}

func (m dateMessages) required() string {
	if m.opts.Field != "" {
		if msg, ok := m.opts.Localizer.Text("errors." + m.opts.Field + "." + DateRequired); ok {
			return msg
		}
	}
	if strings.TrimSpace(m.opts.Message) != "" {
		return m.opts.Message
	}
	return m.get(DateRequired, nil)
}

func (m dateMessages) future() string {
	if msg := strings.TrimSpace(m.opts.Translations["errors.date."+DateFuture]); msg != "" {
		return msg
	}
	return m.get(DateFuture, nil)
}

func (m dateMessages) part(name string) string {
	if msg, ok := m.opts.Localizer.Text("date.parts." + name); ok {
		return msg
	}
	return name
}
