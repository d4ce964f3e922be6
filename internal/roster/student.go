// File: internal/roster/student.go
package roster

// Student is one credential/profile record for a single booking attempt.
// All fields are plain strings; nothing is validated here because the booking
// site itself is the only authority on what it accepts.
type Student struct {
	Email        string
	Password     string
	Phone        string
	FirstName    string
	Surname      string
	County       string
	DateOfBirth  string
	PlaceOfBirth string
	PostalCode   string
}

// Embedded fallback credentials. Edit these for single-shot local runs.
const (
	embedEmail        = "dummy@example.com"
	embedPassword     = "DummyPass123!"
	embedPhone        = "+254700000000"
	embedFirstName    = "Test"
	embedSurname      = "User"
	embedCounty       = "Nairobi"
	embedDateOfBirth  = "2000-01-01" // YYYY-MM-DD
	embedPlaceOfBirth = "Nairobi"
	embedPostalCode   = "00100"
)

// DefaultStudent returns the embedded fallback record.
func DefaultStudent() Student {
	return Student{
		Email:        embedEmail,
		Password:     embedPassword,
		Phone:        embedPhone,
		FirstName:    embedFirstName,
		Surname:      embedSurname,
		County:       embedCounty,
		DateOfBirth:  embedDateOfBirth,
		PlaceOfBirth: embedPlaceOfBirth,
		PostalCode:   embedPostalCode,
	}
}

// FromRecord builds a Student from a CSV row keyed by header name.
// Missing columns default to the empty string.
func FromRecord(row map[string]string) Student {
	return Student{
		Email:        row["email"],
		Password:     row["password"],
		Phone:        row["phone"],
		FirstName:    row["first_name"],
		Surname:      row["surname"],
		County:       row["county"],
		DateOfBirth:  row["dob"],
		PlaceOfBirth: row["place_of_birth"],
		PostalCode:   row["zip_code"],
	}
}
