package places

import (
	"context"
	"errors"
	"strings"

	"backend-commutepro/internal/db"
	"backend-commutepro/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidPlace = errors.New("label, lat and lng required")
	ErrNotFound     = errors.New("saved place not found")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Upsert stores a place under its label, replacing any earlier place with
// the same label for that user.
func (s *Service) Upsert(ctx context.Context, input Place) (Place, error) {
	input.Label = strings.TrimSpace(input.Label)
	if input.UserID == "" || input.Label == "" {
		return Place{}, ErrInvalidPlace
	}
	if input.Lat < -90 || input.Lat > 90 || input.Lng < -180 || input.Lng > 180 {
		return Place{}, ErrInvalidPlace
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO saved_places (id, user_id, label, address, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, label) DO UPDATE
		SET address=EXCLUDED.address, lat=EXCLUDED.lat, lng=EXCLUDED.lng
		RETURNING id, created_at
	`, input.ID, input.UserID, input.Label, input.Address, input.Lat, input.Lng)
	if err := row.Scan(&input.ID, &input.CreatedAt); err != nil {
		return Place{}, err
	}
	return input, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Place, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, label, address, lat, lng, created_at
		FROM saved_places WHERE user_id=$1
		ORDER BY label
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []Place{}
	for rows.Next() {
		var p Place
		if err := rows.Scan(&p.ID, &p.UserID, &p.Label, &p.Address, &p.Lat, &p.Lng, &p.CreatedAt); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (s *Service) Get(ctx context.Context, userID, label string) (Place, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, label, address, lat, lng, created_at
		FROM saved_places WHERE user_id=$1 AND label=$2
	`, userID, label)
	var p Place
	if err := row.Scan(&p.ID, &p.UserID, &p.Label, &p.Address, &p.Lat, &p.Lng, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Place{}, ErrNotFound
		}
		return Place{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID, label string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM saved_places WHERE user_id=$1 AND label=$2`, userID, label)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ByLabel returns the saved place as a route point labelled with its address.
func (s *Service) ByLabel(ctx context.Context, userID, label string) (geo.Point, error) {
	p, err := s.Get(ctx, userID, label)
	if err != nil {
		return geo.Point{}, err
	}
	return p.point(), nil
}

// Nearest returns the closest saved place within radiusM meters.
func (s *Service) Nearest(ctx context.Context, userID string, lat, lng, radiusM float64) (geo.Point, bool, error) {
	places, err := s.List(ctx, userID)
	if err != nil {
		return geo.Point{}, false, err
	}

	best, bestDist, found := Place{}, radiusM, false
	for _, p := range places {
		d := geo.HaversineM(lat, lng, p.Lat, p.Lng)
		if d <= bestDist {
			best, bestDist, found = p, d, true
		}
	}
	if !found {
		return geo.Point{}, false, nil
	}
	return best.point(), true, nil
}

func (p Place) point() geo.Point {
	label := p.Address
	if label == "" {
		label = p.Label
	}
	return geo.Point{Lat: p.Lat, Lng: p.Lng, Label: label}
}
