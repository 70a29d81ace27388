package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"natours/internal/core"

	"github.com/jmoiron/sqlx"
)

const tourColumns = `id, name, slug, duration, max_group_size, difficulty, ratings_average,
	ratings_quantity, price, price_discount, summary, description, image_cover,
	start_location, locations, created_at`

// поля API → колонки (только они допускаются в фильтрах, сортировке и PATCH)
var tourFields = map[string]string{
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"description":     "description",
	"imageCover":      "image_cover",
	"createdAt":       "created_at",
}

var filterOps = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// Filter — условие на поле: ?price[gte]=500 или ?difficulty=easy&difficulty=medium
type Filter struct {
	Field  string
	Op     string // eq, gt, gte, lt, lte
	Values []string
}

// TourQuery — фильтры, сортировка и страница списка туров
type TourQuery struct {
	Filters []Filter
	Sort    []string // "price", "-ratingsAverage"
	Page    int
	Limit   int
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// IsTourField — поле можно использовать в запросе
func IsTourField(name string) bool {
	_, ok := tourFields[name]
	return ok
}

// IsFilterOp — поддерживаемый оператор фильтра
func IsFilterOp(op string) bool {
	_, ok := filterOps[op]
	return ok
}

type TourRepo struct {
	db *sqlx.DB
}

func NewTourRepo(db *sqlx.DB) *TourRepo {
	return &TourRepo{db: db}
}

// buildList собирает SELECT по TourQuery; неизвестные поля отбрасываются
func buildList(q TourQuery) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	for _, f := range q.Filters {
		col, ok := tourFields[f.Field]
		op, okOp := filterOps[f.Op]
		if !ok || !okOp || len(f.Values) == 0 {
			continue
		}
		if f.Op == "eq" && len(f.Values) > 1 {
			where = append(where, col+" IN (?)")
			args = append(args, f.Values)
			continue
		}
		where = append(where, col+" "+op+" ?")
		args = append(args, f.Values[len(f.Values)-1])
	}

	var order []string
	for _, s := range q.Sort {
		dir := "ASC"
		if strings.HasPrefix(s, "-") {
			dir, s = "DESC", s[1:]
		}
		if col, ok := tourFields[s]; ok {
			order = append(order, col+" "+dir)
		}
	}
	if len(order) == 0 {
		order = []string{"created_at DESC"}
	}
	order = append(order, "id ASC")

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	query := "SELECT " + tourColumns + " FROM tours"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + strings.Join(order, ", ")
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, (page-1)*limit)

	if len(args) == 0 {
		return query, nil, nil
	}
	return sqlx.In(query, args...)
}

func (r *TourRepo) List(ctx context.Context, q TourQuery) ([]Tour, error) {
	query, args, err := buildList(q)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	items := []Tour{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		core.LogError("list tours", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, err
	}
	return items, nil
}

func (r *TourRepo) Get(ctx context.Context, id int64) (*Tour, error) {
	var t Tour
	const q = `SELECT ` + tourColumns + ` FROM tours WHERE id = ?`
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		if err != sql.ErrNoRows {
			core.LogError("get tour by id", map[string]interface{}{"id": id, "error": err.Error()})
		}
		return nil, err
	}
	return &t, nil
}

func (r *TourRepo) GetBySlug(ctx context.Context, slug string) (*Tour, error) {
	var t Tour
	const q = `SELECT ` + tourColumns + ` FROM tours WHERE slug = ?`
	if err := r.db.GetContext(ctx, &t, q, slug); err != nil {
		if err != sql.ErrNoRows {
			core.LogError("get tour by slug", map[string]interface{}{"slug": slug, "error": err.Error()})
		}
		return nil, err
	}
	return &t, nil
}

// Create сохраняет тур и проставляет ID и slug
func (r *TourRepo) Create(ctx context.Context, t *Tour) error {
	t.Slug = Slugify(t.Name)
	const q = `
		INSERT INTO tours (name, slug, duration, max_group_size, difficulty, price,
			price_discount, summary, description, image_cover, start_location, locations)
		VALUES (:name, :slug, :duration, :max_group_size, :difficulty, :price,
			:price_discount, :summary, :description, :image_cover, :start_location, :locations)`
	res, err := r.db.NamedExecContext(ctx, q, t)
	if err != nil {
		core.LogError("create tour", map[string]interface{}{"name": t.Name, "error": err.Error()})
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// Update меняет только известные поля; name тянет за собой slug
func (r *TourRepo) Update(ctx context.Context, id int64, fields map[string]any) (*Tour, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if col, ok := tourFields[k]; ok && col != "created_at" && col != "slug" &&
			col != "ratings_average" && col != "ratings_quantity" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return r.Get(ctx, id)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		sets = append(sets, tourFields[k]+" = ?")
		args = append(args, fields[k])
		if k == "name" {
			sets = append(sets, "slug = ?")
			args = append(args, Slugify(fmt.Sprint(fields[k])))
		}
	}
	args = append(args, id)

	q := "UPDATE tours SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		core.LogError("update tour", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, err
	}
	// MySQL считает только изменённые строки, поэтому отсутствие тура проверяет Get
	return r.Get(ctx, id)
}

func (r *TourRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tours WHERE id = ?`, id)
	if err != nil {
		core.LogError("delete tour", map[string]interface{}{"id": id, "error": err.Error()})
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BookedBy — туры, забронированные пользователем
func (r *TourRepo) BookedBy(ctx context.Context, userID int64) ([]Tour, error) {
	const q = `SELECT ` + tourColumns + ` FROM tours
		WHERE id IN (SELECT tour_id FROM bookings WHERE user_id = ?)
		ORDER BY name ASC`
	items := []Tour{}
	if err := r.db.SelectContext(ctx, &items, q, userID); err != nil {
		core.LogError("list booked tours", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, err
	}
	return items, nil
}

// Slugify — "The Sea Explorer" → "the-sea-explorer"
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
