// File: internal/roster/loader.go
package roster

import (
	"encoding/csv"
	"os"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/config"
)

// Loader assembles the list of students for a run from CSV, environment
// variables, or the embedded defaults.
type Loader struct {
	cfg    config.RosterConfig
	logger *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(cfg config.RosterConfig, logger *zap.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logger.Named("roster")}
}

// Load resolves the student list. The resolution order mirrors the CLI
// contract: --ignore-env suppresses all env reads, --env-only selects the
// single env (or embedded) record, otherwise the CSV wins when given.
// The result is never empty.
func (l *Loader) Load() []Student {
	if !l.cfg.IgnoreEnv {
		l.loadDotenv()
	}

	if l.cfg.EnvOnly {
		if l.cfg.IgnoreEnv {
			l.logger.Info("Using embedded default student (env ignored).")
			return []Student{DefaultStudent()}
		}
		l.logger.Info("Using single student from environment.")
		return []Student{l.studentFromEnv()}
	}

	return l.loadCSV()
}

// loadDotenv layers an optional .env file into the process environment.
// Absence of the file is the normal case, not an error.
func (l *Loader) loadDotenv() {
	if l.cfg.EnvFile != "" {
		path, err := homedir.Expand(l.cfg.EnvFile)
		if err != nil {
			path = l.cfg.EnvFile
		}
		if err := godotenv.Load(path); err != nil {
			l.logger.Warn("Could not load env file.", zap.String("path", path), zap.Error(err))
		}
		return
	}
	_ = godotenv.Load()
}

// studentFromEnv builds a record from BOOKER_* variables, falling back to the
// embedded defaults per field.
func (l *Loader) studentFromEnv() Student {
	return Student{
		Email:        envOr("BOOKER_EMAIL", embedEmail),
		Password:     envOr("BOOKER_PASSWORD", embedPassword),
		Phone:        envOr("BOOKER_PHONE", embedPhone),
		FirstName:    envOr("BOOKER_FIRST_NAME", embedFirstName),
		Surname:      envOr("BOOKER_SURNAME", embedSurname),
		County:       envOr("BOOKER_COUNTY", embedCounty),
		DateOfBirth:  envOr("BOOKER_DOB", embedDateOfBirth),
		PlaceOfBirth: envOr("BOOKER_PLACE_OF_BIRTH", embedPlaceOfBirth),
		PostalCode:   envOr("BOOKER_ZIP", embedPostalCode),
	}
}

// loadCSV reads the roster CSV. Any failure, or an empty file, yields the
// single embedded default record so a run always has someone to book for.
func (l *Loader) loadCSV() []Student {
	if l.cfg.CSVPath == "" {
		return []Student{DefaultStudent()}
	}

	path, err := homedir.Expand(l.cfg.CSVPath)
	if err != nil {
		path = l.cfg.CSVPath
	}

	students, err := ReadStudentsCSV(path)
	if err != nil {
		l.logger.Error("Failed to read roster CSV, falling back to embedded default.",
			zap.String("path", path), zap.Error(err))
		return []Student{DefaultStudent()}
	}
	if len(students) == 0 {
		l.logger.Warn("Roster CSV contained no rows, using embedded default.", zap.String("path", path))
		return []Student{DefaultStudent()}
	}

	l.logger.Info("Loaded students from CSV.", zap.String("path", path), zap.Int("count", len(students)))
	return students
}

// ReadStudentsCSV parses a header-driven CSV file into Student records.
func ReadStudentsCSV(path string) ([]Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Rows shorter than the header are tolerated; missing cells read empty.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	students := make([]Student, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		students = append(students, FromRecord(row))
	}
	return students, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
