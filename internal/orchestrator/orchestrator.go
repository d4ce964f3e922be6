// File: internal/orchestrator/orchestrator.go

// Package orchestrator runs the booking flow for each student in turn. Every
// student gets a fresh, isolated browser session; one student's crash never
// takes the others down.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/booker-cli/internal/flow"
	"github.com/xkilldash9x/booker-cli/internal/roster"
)

// Session is a browser tab plus its teardown.
type Session interface {
	flow.Page
	Close()
}

// SessionFactory opens a fresh session for one student's run.
type SessionFactory func() (Session, error)

// BookingFlow executes the full workflow for one student on one page.
type BookingFlow interface {
	Run(ctx context.Context, page flow.Page, student roster.Student) error
}

// Result records one student's outcome.
type Result struct {
	Email   string
	Success bool
	Err     error
}

// Orchestrator processes a roster sequentially.
type Orchestrator struct {
	logger     *zap.Logger
	newSession SessionFactory
	flow       BookingFlow
}

func New(logger *zap.Logger, newSession SessionFactory, bookingFlow BookingFlow) *Orchestrator {
	return &Orchestrator{
		logger:     logger.Named("orchestrator"),
		newSession: newSession,
		flow:       bookingFlow,
	}
}

// RunAll books for every student in order and returns one result per
// student, in roster order. A cancelled context marks the remaining
// students as failed without attempting them.
func (o *Orchestrator) RunAll(ctx context.Context, students []roster.Student) []Result {
	results := make([]Result, 0, len(students))

	for i, student := range students {
		log := o.logger.With(zap.String("student", student.Email), zap.Int("index", i))

		if err := ctx.Err(); err != nil {
			log.Warn("Run cancelled before this student's attempt.")
			results = append(results, Result{Email: student.Email, Success: false, Err: err})
			continue
		}

		log.Info("Starting student run.")
		err := o.runOne(ctx, student, log)
		if err != nil {
			log.Error("Student run failed.", zap.Error(err))
		} else {
			log.Info("Student run succeeded.")
		}
		results = append(results, Result{Email: student.Email, Success: err == nil, Err: err})
	}

	return results
}

// runOne isolates a single student's attempt: its own session, its own
// panic boundary.
func (o *Orchestrator) runOne(ctx context.Context, student roster.Student, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Student run panicked.", zap.Any("panic", r))
			err = fmt.Errorf("booking run panicked: %v", r)
		}
	}()

	session, err := o.newSession()
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	return o.flow.Run(ctx, session, student)
}
