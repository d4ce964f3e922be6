// File: internal/flow/fields.go
package flow

import (
	"strings"

	"github.com/xkilldash9x/booker-cli/internal/roster"
)

// FieldValue pairs a lowercase keyword fragment with the student value it
// stands for. Order matters: the first fragment found in an element's
// attributes wins.
type FieldValue struct {
	Keyword string
	Value   string
}

// DetailMapping builds the ordered keyword table for a student's
// personal-details form. Entries with empty values are dropped so a blank
// CSV column never overwrites a field with an empty string.
func DetailMapping(student roster.Student) []FieldValue {
	all := []FieldValue{
		{"phone", student.Phone},
		{"first", student.FirstName},
		{"given", student.FirstName},
		{"sur", student.Surname},
		{"last", student.Surname},
		{"county", student.County},
		{"birth", student.PlaceOfBirth},
		{"zip", student.PostalCode},
		{"post", student.PostalCode},
		{"date", student.DateOfBirth},
		{"dob", student.DateOfBirth},
	}

	mapping := make([]FieldValue, 0, len(all))
	for _, fv := range all {
		if fv.Value == "" {
			continue
		}
		mapping = append(mapping, FieldValue{Keyword: strings.ToLower(fv.Keyword), Value: fv.Value})
	}
	return mapping
}

// MatchDetailValue decides what to type into a form control. It concatenates
// the element's name, placeholder and aria-label attributes, lowercased, and
// returns the value of the first keyword fragment that appears in that text.
// This is a heuristic: there is no validation that the guess was right.
func MatchDetailValue(attrs map[string]string, mapping []FieldValue) (FieldValue, bool) {
	haystack := strings.ToLower(
		attrs["name"] + " " + attrs["placeholder"] + " " + attrs["aria-label"],
	)
	for _, fv := range mapping {
		if strings.Contains(haystack, fv.Keyword) {
			return fv, true
		}
	}
	return FieldValue{}, false
}
