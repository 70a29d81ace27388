package storage

import (
	"context"

	"natours/internal/core"

	"github.com/jmoiron/sqlx"
)

type BookingRepo struct {
	db *sqlx.DB
}

func NewBookingRepo(db *sqlx.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Create — бронь по оплаченной сессии; повтор той же сессии даст 1062
func (r *BookingRepo) Create(ctx context.Context, b *Booking) error {
	const q = `
		INSERT INTO bookings (tour_id, user_id, price, paid, session_id)
		VALUES (:tour_id, :user_id, :price, :paid, :session_id)`
	res, err := r.db.NamedExecContext(ctx, q, b)
	if err != nil {
		core.LogError("create booking", map[string]interface{}{"tour_id": b.TourID, "error": err.Error()})
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *BookingRepo) List(ctx context.Context) ([]Booking, error) {
	items := []Booking{}
	const q = `SELECT id, tour_id, user_id, price, paid, session_id, created_at FROM bookings ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &items, q); err != nil {
		core.LogError("list bookings", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return items, nil
}
