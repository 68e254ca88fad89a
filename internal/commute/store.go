package commute

import (
	"context"

	"backend-commutepro/internal/db"

	"github.com/google/uuid"
)

const recordColumns = `id, user_id, date_commuted::text, start_time, end_time, duration_minutes,
		       estimated_duration_minutes, distance_km, start_location, end_location,
		       start_lat, start_lng, end_lat, end_lng, traffic_level, notes, created_at`

// Store persists trip records. Every query is scoped to one owner.
type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, rec TripRecord) (TripRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO commutes (id, user_id, date_commuted, start_time, end_time, duration_minutes,
		                      estimated_duration_minutes, distance_km, start_location, end_location,
		                      start_lat, start_lng, end_lat, end_lng, traffic_level, notes)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.DateCommuted, rec.StartTime, rec.EndTime, rec.DurationMinutes,
		rec.EstimatedDurationMinutes, rec.DistanceKm, rec.StartLocation, rec.EndLocation,
		rec.StartLat, rec.StartLng, rec.EndLat, rec.EndLng, rec.TrafficLevel, rec.Notes)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return TripRecord{}, err
	}
	return rec, nil
}

// ListByOwner returns the user's trips, newest first.
func (s *Store) ListByOwner(ctx context.Context, userID string) ([]TripRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM commutes WHERE user_id=$1
		ORDER BY date_commuted DESC, start_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []TripRecord{}
	for rows.Next() {
		var r TripRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.DateCommuted, &r.StartTime, &r.EndTime, &r.DurationMinutes,
			&r.EstimatedDurationMinutes, &r.DistanceKm, &r.StartLocation, &r.EndLocation,
			&r.StartLat, &r.StartLng, &r.EndLat, &r.EndLng, &r.TrafficLevel, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteByID removes a trip only if it belongs to userID.
func (s *Store) DeleteByID(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM commutes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
