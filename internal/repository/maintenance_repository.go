package repository

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// MaintenanceRepo provides data access to the maintenance_blocks table.
// Blackout intervals are closed on both ends; the SQL below mirrors the
// closed-interval overlap test in model.MaintenanceOverlaps.
type MaintenanceRepo struct {
	store *Store
}

// NewMaintenanceRepo returns a MaintenanceRepo bound to the given store.
func NewMaintenanceRepo(store *Store) *MaintenanceRepo { return &MaintenanceRepo{store: store} }

// Insert persists a maintenance block and populates its id.
func (r *MaintenanceRepo) Insert(ctx context.Context, m *model.MaintenanceBlock) error {
	const q = `INSERT INTO maintenance_blocks (room_id, starts_on, ends_on, reason)
		VALUES (?, ?, ?, ?)`
	res, err := r.store.conn(ctx).ExecContext(ctx, q,
		m.RoomID, m.StartsOn.UTC(), m.EndsOn.UTC(), m.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Overlapping returns the blocks for a room that collide with the
// closed window [start, end].
func (r *MaintenanceRepo) Overlapping(ctx context.Context, roomID uint64, start, end time.Time) ([]model.MaintenanceBlock, error) {
	const q = `SELECT id, room_id, starts_on, ends_on, reason, created_at
		FROM maintenance_blocks
		WHERE room_id = ? AND starts_on <= ? AND ends_on >= ?`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, roomID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MaintenanceBlock
	for rows.Next() {
		var m model.MaintenanceBlock
		if err := rows.Scan(&m.ID, &m.RoomID, &m.StartsOn, &m.EndsOn, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListByRoom returns all blocks for a room ordered by start day.
func (r *MaintenanceRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.MaintenanceBlock, error) {
	const q = `SELECT id, room_id, starts_on, ends_on, reason, created_at
		FROM maintenance_blocks WHERE room_id = ? ORDER BY starts_on`
	rows, err := r.store.conn(ctx).QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.MaintenanceBlock
	for rows.Next() {
		var m model.MaintenanceBlock
		if err := rows.Scan(&m.ID, &m.RoomID, &m.StartsOn, &m.EndsOn, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a scheduled block.
func (r *MaintenanceRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM maintenance_blocks WHERE id = ?`
	res, err := r.store.conn(ctx).ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
