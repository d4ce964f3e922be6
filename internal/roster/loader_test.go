// File: internal/roster/loader_test.go
package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/booker-cli/internal/config"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadStudentsCSV(t *testing.T) {
	t.Run("should map rows by header name", func(t *testing.T) {
		path := writeTempCSV(t, "email,password,phone,first_name,surname,county,dob,place_of_birth,zip_code\n"+
			"a@example.com,pw1,+111,Alice,Anders,Nairobi,1990-01-01,Nakuru,00100\n"+
			"b@example.com,pw2,+222,Bob,Brown,Mombasa,1991-02-02,Kisumu,80100\n")

		students, err := ReadStudentsCSV(path)
		require.NoError(t, err)
		require.Len(t, students, 2)

		assert.Equal(t, "a@example.com", students[0].Email)
		assert.Equal(t, "Anders", students[0].Surname)
		assert.Equal(t, "Nakuru", students[0].PlaceOfBirth)
		assert.Equal(t, "80100", students[1].PostalCode)
	})

	t.Run("should leave fields empty when a column is missing", func(t *testing.T) {
		path := writeTempCSV(t, "email,first_name\nc@example.com,Carol\n")

		students, err := ReadStudentsCSV(path)
		require.NoError(t, err)
		require.Len(t, students, 1)

		assert.Equal(t, "c@example.com", students[0].Email)
		assert.Equal(t, "Carol", students[0].FirstName)
		assert.Empty(t, students[0].Password, "a missing password column reads as empty, not an error")
	})

	t.Run("should tolerate short rows", func(t *testing.T) {
		path := writeTempCSV(t, "email,password\nd@example.com\n")

		students, err := ReadStudentsCSV(path)
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "d@example.com", students[0].Email)
		assert.Empty(t, students[0].Password)
	})

	t.Run("should return no students for a header-only file", func(t *testing.T) {
		path := writeTempCSV(t, "email,password\n")

		students, err := ReadStudentsCSV(path)
		require.NoError(t, err)
		assert.Empty(t, students)
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		_, err := ReadStudentsCSV(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
	})
}

func TestLoaderLoad(t *testing.T) {
	t.Run("should fall back to the embedded default when no CSV is given", func(t *testing.T) {
		l := NewLoader(config.RosterConfig{IgnoreEnv: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, DefaultStudent(), students[0])
	})

	t.Run("should fall back to the embedded default when the CSV is unreadable", func(t *testing.T) {
		l := NewLoader(config.RosterConfig{
			CSVPath:   filepath.Join(t.TempDir(), "missing.csv"),
			IgnoreEnv: true,
		}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, DefaultStudent(), students[0])
	})

	t.Run("should fall back to the embedded default when the CSV has no rows", func(t *testing.T) {
		path := writeTempCSV(t, "email,password\n")
		l := NewLoader(config.RosterConfig{CSVPath: path, IgnoreEnv: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, DefaultStudent(), students[0])
	})

	t.Run("should prefer the CSV when it has usable rows", func(t *testing.T) {
		path := writeTempCSV(t, "email,password\ne@example.com,pw\n")
		l := NewLoader(config.RosterConfig{CSVPath: path, IgnoreEnv: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, "e@example.com", students[0].Email)
	})

	t.Run("should build a single student from the environment in env-only mode", func(t *testing.T) {
		t.Setenv("BOOKER_EMAIL", "env@example.com")
		t.Setenv("BOOKER_FIRST_NAME", "Envy")

		l := NewLoader(config.RosterConfig{EnvOnly: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, "env@example.com", students[0].Email)
		assert.Equal(t, "Envy", students[0].FirstName)
		assert.Equal(t, DefaultStudent().Password, students[0].Password,
			"unset env fields fall back to the embedded values")
	})

	t.Run("should use the embedded default in env-only mode when env is ignored", func(t *testing.T) {
		t.Setenv("BOOKER_EMAIL", "ignored@example.com")

		l := NewLoader(config.RosterConfig{EnvOnly: true, IgnoreEnv: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, DefaultStudent(), students[0])
	})

	t.Run("should ignore the CSV entirely in env-only mode", func(t *testing.T) {
		t.Setenv("BOOKER_EMAIL", "env@example.com")
		path := writeTempCSV(t, "email,password\ncsv@example.com,pw\n")

		l := NewLoader(config.RosterConfig{CSVPath: path, EnvOnly: true}, zaptest.NewLogger(t))
		students := l.Load()
		require.Len(t, students, 1)
		assert.Equal(t, "env@example.com", students[0].Email)
	})
}
