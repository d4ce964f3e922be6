// File: internal/flow/fields_test.go
package flow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/booker-cli/internal/roster"
)

func TestDetailMapping(t *testing.T) {
	t.Run("should keep keywords in priority order", func(t *testing.T) {
		student := roster.Student{
			Phone:        "+254700000000",
			FirstName:    "Test",
			Surname:      "User",
			County:       "Nairobi",
			DateOfBirth:  "2000-01-01",
			PlaceOfBirth: "Nairobi",
			PostalCode:   "00100",
		}
		want := []FieldValue{
			{"phone", "+254700000000"},
			{"first", "Test"},
			{"given", "Test"},
			{"sur", "User"},
			{"last", "User"},
			{"county", "Nairobi"},
			{"birth", "Nairobi"},
			{"zip", "00100"},
			{"post", "00100"},
			{"date", "2000-01-01"},
			{"dob", "2000-01-01"},
		}
		if diff := cmp.Diff(want, DetailMapping(student)); diff != "" {
			t.Errorf("DetailMapping mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should drop entries with empty values", func(t *testing.T) {
		student := roster.Student{FirstName: "Test"}
		want := []FieldValue{{"first", "Test"}, {"given", "Test"}}
		if diff := cmp.Diff(want, DetailMapping(student)); diff != "" {
			t.Errorf("DetailMapping mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMatchDetailValue(t *testing.T) {
	student := roster.Student{
		Phone:        "+254700000000",
		FirstName:    "Test",
		Surname:      "User",
		DateOfBirth:  "2000-01-01",
		PlaceOfBirth: "Nairobi",
		PostalCode:   "00100",
	}
	mapping := DetailMapping(student)

	t.Run("should match against the name attribute", func(t *testing.T) {
		fv, ok := MatchDetailValue(map[string]string{"name": "phone_number"}, mapping)
		require.True(t, ok)
		assert.Equal(t, student.Phone, fv.Value)
	})

	t.Run("should match against the placeholder attribute", func(t *testing.T) {
		fv, ok := MatchDetailValue(map[string]string{"placeholder": "Your Surname"}, mapping)
		require.True(t, ok)
		assert.Equal(t, student.Surname, fv.Value)
	})

	t.Run("should match against the aria-label attribute", func(t *testing.T) {
		fv, ok := MatchDetailValue(map[string]string{"aria-label": "ZIP code"}, mapping)
		require.True(t, ok)
		assert.Equal(t, student.PostalCode, fv.Value)
	})

	t.Run("should be case-insensitive", func(t *testing.T) {
		fv, ok := MatchDetailValue(map[string]string{"name": "FIRST_NAME"}, mapping)
		require.True(t, ok)
		assert.Equal(t, student.FirstName, fv.Value)
	})

	t.Run("should let the first keyword in priority order win", func(t *testing.T) {
		// "date of birth" contains both "birth" and "date"; "birth" is
		// earlier in the table, so the place of birth wins.
		fv, ok := MatchDetailValue(map[string]string{"name": "date_of_birth"}, mapping)
		require.True(t, ok)
		assert.Equal(t, "birth", fv.Keyword)
		assert.Equal(t, student.PlaceOfBirth, fv.Value)
	})

	t.Run("should report no match for unknown fields", func(t *testing.T) {
		_, ok := MatchDetailValue(map[string]string{"name": "newsletter_opt_in"}, mapping)
		assert.False(t, ok)
	})

	t.Run("should not match when the keyword's value was empty", func(t *testing.T) {
		partial := DetailMapping(roster.Student{FirstName: "Test"})
		_, ok := MatchDetailValue(map[string]string{"name": "phone"}, partial)
		assert.False(t, ok)
	})
}
