package common

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usampac/admin-web/internal/admin/application"
)

func postForm(t *testing.T, values url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, ParseForm(httptest.NewRecorder(), req))
	return req
}

func TestParseLeadingInt(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"7":     7,
		"  12 ": 12,
		"12px":  12,
		"3.9":   3,
		"-4":    -4,
		"+5":    5,
		"abc":   0,
		"-":     0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLeadingInt(in, 0), "input %q", in)
	}
}

func TestFormFields(t *testing.T) {
	req := postForm(t, url.Values{
		"title":     {"  Town hall  "},
		"url":       {"   "},
		"is_active": {"on"},
		"is_other":  {"true"},
		"position":  {"2nd"},
		"ids":       {"a", " ", "b"},
	})

	assert.Equal(t, "Town hall", Text(req, "title"))
	assert.Nil(t, OptionalText(req, "url"))
	assert.Nil(t, OptionalText(req, "missing"))
	assert.True(t, Checkbox(req, "is_active"))
	assert.False(t, Checkbox(req, "is_other"))
	assert.False(t, Checkbox(req, "missing"))
	assert.Equal(t, 2, Position(req, "position"))
	assert.Equal(t, 0, Position(req, "missing"))
	assert.Equal(t, []string{"a", "b"}, Values(req, "ids"))
}

func TestParseDateTimeLocal(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := ParseDateTimeLocal("published_at", "2024-11-05T09:30", loc)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC), got.UTC())

	got, err = ParseDateTimeLocal("published_at", "  ", loc)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDateTimeLocal("published_at", "next tuesday", loc)
	require.Error(t, err)
	assert.True(t, application.IsValidation(err))
	assert.Contains(t, err.Error(), "published_at")
}

func TestFormatDateTimeLocal(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.Equal(t, "2024-11-05T09:30", FormatDateTimeLocal(time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC), loc))
	assert.Equal(t, "", FormatDateTimeLocal(time.Time{}, loc))
}

type requiredForm struct {
	Title string `validate:"required"`
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(requiredForm{}))
	assert.NoError(t, Validate(requiredForm{Title: "x"}))
}
