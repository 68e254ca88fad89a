package stats

import (
	"context"
	"errors"

	"backend-commutepro/internal/commute"
	"backend-commutepro/internal/logger"

	"github.com/sirupsen/logrus"
)

var ErrUnauthenticated = errors.New("user not authenticated")

type History interface {
	List(ctx context.Context, userID string) ([]commute.TripRecord, error)
}

type SuggestionGate interface {
	AISuggestions(ctx context.Context, userID string) (bool, error)
}

type Notifier interface {
	Notify(userID, title, body string)
}

type Service struct {
	history  History
	gate     SuggestionGate
	notifier Notifier
	opts     Options
	log      *logrus.Logger
}

func NewService(history History, gate SuggestionGate, notifier Notifier, opts Options, log *logrus.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{history: history, gate: gate, notifier: notifier, opts: opts, log: log}
}

func (s *Service) Insights(ctx context.Context, userID string) (Insights, error) {
	if userID == "" {
		return Insights{}, ErrUnauthenticated
	}
	records, err := s.history.List(ctx, userID)
	if err != nil {
		return Insights{}, err
	}
	return Compute(records, s.opts), nil
}

// Tip describes the user's worst commute and, when suggestions are enabled,
// pushes it to their notification stream.
func (s *Service) Tip(ctx context.Context, userID string) (string, bool, error) {
	if userID == "" {
		return "", false, ErrUnauthenticated
	}
	records, err := s.history.List(ctx, userID)
	if err != nil {
		return "", false, err
	}
	msg := WorstCommute(records)

	enabled, err := s.gate.AISuggestions(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("read suggestion setting")
		return msg, false, nil
	}
	if !enabled || len(records) == 0 {
		return msg, false, nil
	}
	s.notifier.Notify(userID, "Commute tip", msg)
	return msg, true, nil
}
