package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
)

// RoomRepo stores rooms.  Facilities live in a JSON column so the search
// can use JSON_CONTAINS instead of a join table.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle for transactional callers.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = "id, name, building, capacity, facilities, status, image_url, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var (
		rm  model.Room
		raw []byte
	)
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Building, &rm.Capacity, &raw, &rm.Status,
		&rm.ImageURL, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return model.Room{}, err
	}
	rm.Facilities = []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rm.Facilities); err != nil {
			return model.Room{}, fmt.Errorf("room %d facilities: %w", rm.ID, err)
		}
	}
	return rm, nil
}

func encodeFacilities(tags []string) ([]byte, error) {
	clean := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	return json.Marshal(clean)
}

// Create inserts the room and fills in its ID.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	fac, err := encodeFacilities(rm.Facilities)
	if err != nil {
		return err
	}
	if rm.Status == "" {
		rm.Status = model.RoomActive
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (name, building, capacity, facilities, status, image_url) VALUES (?, ?, ?, ?, ?, ?)`,
		rm.Name, rm.Building, rm.Capacity, fac, rm.Status, rm.ImageURL)
	if err != nil {
		if mysqlCode(err) == errDupEntry {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// Update overwrites every editable column of the room.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	fac, err := encodeFacilities(rm.Facilities)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, building = ?, capacity = ?, facilities = ?, status = ?, image_url = ? WHERE id = ?`,
		rm.Name, rm.Building, rm.Capacity, fac, rm.Status, rm.ImageURL, rm.ID)
	if err != nil {
		if mysqlCode(err) == errDupEntry {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a room.  Rooms referenced by bookings cannot be deleted
// (ErrConflict); put them under maintenance instead.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		if mysqlCode(err) == errRowIsParent {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	return rm, notFound(err)
}

// RoomFilter narrows List.  Zero fields match every room.
type RoomFilter struct {
	Query       string   // substring of name or building
	Facilities  []string // all must be present
	MinCapacity uint32
	Status      string
}

// List returns rooms matching f ordered by building and name.
func (r *RoomRepo) List(ctx context.Context, f RoomFilter) ([]model.Room, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(name LIKE ? OR building LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	for _, tag := range f.Facilities {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			where = append(where, "JSON_CONTAINS(facilities, JSON_QUOTE(?))")
			args = append(args, tag)
		}
	}
	if f.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	q := `SELECT ` + roomColumns + ` FROM rooms`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY building, name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// lockRoomTx loads the room with SELECT ... FOR UPDATE.  Every booking
// insert for the room serializes on this row lock.
func lockRoomTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id))
	return rm, notFound(err)
}
