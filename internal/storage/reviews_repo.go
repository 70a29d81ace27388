package storage

import (
	"context"
	"database/sql"

	"natours/internal/core"

	"github.com/jmoiron/sqlx"
)

const reviewSelect = `
	SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at,
		u.name AS user_name, u.photo AS user_photo
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

type ReviewRepo struct {
	db *sqlx.DB
}

func NewReviewRepo(db *sqlx.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// List — все отзывы или отзывы одного тура (tourID > 0)
func (r *ReviewRepo) List(ctx context.Context, tourID int64) ([]Review, error) {
	items := []Review{}
	var err error
	if tourID > 0 {
		err = r.db.SelectContext(ctx, &items, reviewSelect+` WHERE r.tour_id = ? ORDER BY r.created_at DESC`, tourID)
	} else {
		err = r.db.SelectContext(ctx, &items, reviewSelect+` ORDER BY r.created_at DESC`)
	}
	if err != nil {
		core.LogError("list reviews", map[string]interface{}{"tour_id": tourID, "error": err.Error()})
		return nil, err
	}
	return items, nil
}

func (r *ReviewRepo) Get(ctx context.Context, id int64) (*Review, error) {
	var rv Review
	if err := r.db.GetContext(ctx, &rv, reviewSelect+` WHERE r.id = ?`, id); err != nil {
		if err != sql.ErrNoRows {
			core.LogError("get review", map[string]interface{}{"id": id, "error": err.Error()})
		}
		return nil, err
	}
	return &rv, nil
}

// Create сохраняет отзыв и пересчитывает рейтинг тура в одной транзакции
func (r *ReviewRepo) Create(ctx context.Context, rv *Review) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (review, rating, tour_id, user_id) VALUES (?, ?, ?, ?)`,
		rv.Review, rv.Rating, rv.TourID, rv.UserID)
	if err != nil {
		core.LogError("create review", map[string]interface{}{"tour_id": rv.TourID, "error": err.Error()})
		return err
	}
	if rv.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if err := refreshRatings(ctx, tx, rv.TourID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var tourID int64
	if err := tx.GetContext(ctx, &tourID, `SELECT tour_id FROM reviews WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id); err != nil {
		core.LogError("delete review", map[string]interface{}{"id": id, "error": err.Error()})
		return err
	}
	if err := refreshRatings(ctx, tx, tourID); err != nil {
		return err
	}
	return tx.Commit()
}

// refreshRatings — среднее и количество оценок; без отзывов 4.5 и 0
func refreshRatings(ctx context.Context, tx *sqlx.Tx, tourID int64) error {
	const q = `
		UPDATE tours SET
			ratings_quantity = (SELECT COUNT(*) FROM reviews WHERE tour_id = ?),
			ratings_average = COALESCE((SELECT ROUND(AVG(rating), 1) FROM reviews WHERE tour_id = ?), 4.5)
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, tourID, tourID, tourID); err != nil {
		core.LogError("refresh tour ratings", map[string]interface{}{"tour_id": tourID, "error": err.Error()})
		return err
	}
	return nil
}
