package common

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/usampac/admin-web/internal/admin/application"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks struct tags on a decoded form.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(v)
}

// ParseForm reads an urlencoded body bounded by MaxFormBody.
func ParseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBody)
	return r.ParseForm()
}

// Text returns the trimmed form value.
func Text(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// OptionalText returns nil for an absent or blank value.
func OptionalText(r *http.Request, name string) *string {
	v := Text(r, name)
	if v == "" {
		return nil
	}
	return &v
}

// Checkbox reports whether an HTML checkbox was ticked.
func Checkbox(r *http.Request, name string) bool {
	return r.PostFormValue(name) == "on"
}

// Position parses an ordering field; missing or non-numeric input is 0.
func Position(r *http.Request, name string) int {
	return ParseLeadingInt(r.PostFormValue(name), 0)
}

// Values returns every non-blank value submitted under name.
func Values(r *http.Request, name string) []string {
	raw := r.PostForm[name]
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var dateTimeLocalLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
}

// DateTimeLocal parses the datetime-local field name in loc. Blank input yields nil; anything
// unparsable is a validation error rather than a guess.
func DateTimeLocal(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	return ParseDateTimeLocal(name, r.PostFormValue(name), loc)
}

// ParseDateTimeLocal is DateTimeLocal for a raw value.
func ParseDateTimeLocal(field, value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateTimeLocalLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t, nil
		}
	}
	return nil, &application.ValidationError{Field: field, Message: "invalid date and time " + value}
}

// FormatDateTimeLocal renders t for a datetime-local input in loc.
func FormatDateTimeLocal(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02T15:04")
}
