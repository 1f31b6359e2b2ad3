package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// RoomTypeRepo provides data access to the room_types table.  Room
// types are read-mostly: staff edit them occasionally, availability and
// pricing read them constantly.
type RoomTypeRepo struct {
	store *Store
}

// NewRoomTypeRepo returns a RoomTypeRepo bound to the given store.
func NewRoomTypeRepo(store *Store) *RoomTypeRepo { return &RoomTypeRepo{store: store} }

const roomTypeColumns = `id, name, description, capacity,
	base_rate_cents, weekend_rate_cents, seasonal_rate_cents,
	season_start, season_end, active, created_at, updated_at`

func scanRoomType(row interface{ Scan(dest ...any) error }) (*model.RoomType, error) {
	var t model.RoomType
	var seasonStart, seasonEnd sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Capacity,
		&t.BaseRateCents, &t.WeekendRateCents, &t.SeasonalRateCents,
		&seasonStart, &seasonEnd, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if seasonStart.Valid {
		v := seasonStart.Time.UTC()
		t.SeasonStart = &v
	}
	if seasonEnd.Valid {
		v := seasonEnd.Time.UTC()
		t.SeasonEnd = &v
	}
	return &t, nil
}

// GetByID loads a room type.  Returns ErrRoomTypeNotFound when missing.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`
	t, err := scanRoomType(r.store.conn(ctx).QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomTypeNotFound
	}
	return t, err
}

// ListActive returns all active room types ordered by name.
func (r *RoomTypeRepo) ListActive(ctx context.Context) ([]*model.RoomType, error) {
	const q = `SELECT ` + roomTypeColumns + ` FROM room_types WHERE active = 1 ORDER BY name`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.RoomType
	for rows.Next() {
		t, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a room type and populates its id.
func (r *RoomTypeRepo) Create(ctx context.Context, t *model.RoomType) error {
	const q = `INSERT INTO room_types
		(name, description, capacity, base_rate_cents, weekend_rate_cents, seasonal_rate_cents,
		 season_start, season_end, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`
	var start, end any
	if t.SeasonStart != nil {
		start = t.SeasonStart.UTC()
	}
	if t.SeasonEnd != nil {
		end = t.SeasonEnd.UTC()
	}
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		t.Name, t.Description, t.Capacity,
		t.BaseRateCents, t.WeekendRateCents, t.SeasonalRateCents, start, end)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Active = true
	return nil
}
