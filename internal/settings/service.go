package settings

import (
	"context"
	"errors"

	"backend-commutepro/internal/db"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Get returns the user's settings. A user who never saved any gets the
// all-false defaults.
func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	row := s.db.QueryRow(ctx, `
		SELECT location_access, commute_reminders, ai_suggestions, updated_at
		FROM user_settings WHERE user_id=$1
	`, userID)
	st := Settings{UserID: userID}
	if err := row.Scan(&st.LocationAccess, &st.CommuteReminders, &st.AISuggestions, &st.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return st, nil
		}
		return Settings{}, err
	}
	return st, nil
}

// Upsert applies patch on top of the stored settings.
func (s *Service) Upsert(ctx context.Context, userID string, patch Patch) (Settings, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if patch.LocationAccess != nil {
		st.LocationAccess = *patch.LocationAccess
	}
	if patch.CommuteReminders != nil {
		st.CommuteReminders = *patch.CommuteReminders
	}
	if patch.AISuggestions != nil {
		st.AISuggestions = *patch.AISuggestions
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO user_settings (user_id, location_access, commute_reminders, ai_suggestions, updated_at)
		VALUES ($1,$2,$3,$4, now())
		ON CONFLICT (user_id) DO UPDATE
		SET location_access=EXCLUDED.location_access,
		    commute_reminders=EXCLUDED.commute_reminders,
		    ai_suggestions=EXCLUDED.ai_suggestions,
		    updated_at=now()
		RETURNING updated_at
	`, userID, st.LocationAccess, st.CommuteReminders, st.AISuggestions)
	if err := row.Scan(&st.UpdatedAt); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func (s *Service) LocationAccess(ctx context.Context, userID string) (bool, error) {
	st, err := s.Get(ctx, userID)
	return st.LocationAccess, err
}

func (s *Service) AISuggestions(ctx context.Context, userID string) (bool, error) {
	st, err := s.Get(ctx, userID)
	return st.AISuggestions, err
}
