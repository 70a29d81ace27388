package handler

// tours.go — /api/v1/tours
import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"natours/internal/core"
	"natours/internal/pipeline"
	"natours/internal/storage"
)

// параметры списка, которые не являются фильтрами
var reservedQuery = map[string]bool{"sort": true, "page": true, "limit": true, "fields": true}

// parseTourQuery — ?difficulty=easy&price[lt]=1000&sort=-price,name&page=2&limit=10
func parseTourQuery(q url.Values) (storage.TourQuery, error) {
	var tq storage.TourQuery

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reservedQuery[key] {
			continue
		}
		field, op := key, "eq"
		if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
			field, op = key[:i], key[i+1:len(key)-1]
		}
		// неизвестные поля и операторы молча игнорируются
		if !storage.IsTourField(field) || !storage.IsFilterOp(op) {
			continue
		}
		tq.Filters = append(tq.Filters, storage.Filter{Field: field, Op: op, Values: q[key]})
	}

	for _, s := range strings.Split(q.Get("sort"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			tq.Sort = append(tq.Sort, s)
		}
	}

	var err error
	if tq.Page, err = positiveInt(q.Get("page")); err != nil {
		return tq, core.BadRequest("Invalid page: "+q.Get("page"), err)
	}
	if tq.Limit, err = positiveInt(q.Get("limit")); err != nil {
		return tq, core.BadRequest("Invalid limit: "+q.Get("limit"), err)
	}
	return tq, nil
}

func positiveInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// ListTours — GET /api/v1/tours
func ListTours(tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tq, err := parseTourQuery(r.URL.Query())
		if err != nil {
			fail(w, r, err)
			return
		}
		items, err := tours.List(r.Context(), tq)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.SuccessList(w, "tours", items, len(items))
	}
}

// GetTour — GET /api/v1/tours/{id}
func GetTour(tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		t, err := tours.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusOK, "tour", t)
	}
}

type tourInput struct {
	Name          string                `json:"name" validate:"required,min=10,max=40"`
	Duration      int                   `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int                   `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    string                `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64               `json:"price" validate:"required,gt=0"`
	PriceDiscount *float64              `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary       string                `json:"summary" validate:"required"`
	Description   *string               `json:"description"`
	ImageCover    string                `json:"imageCover" validate:"required"`
	StartLocation storage.StartLocation `json:"startLocation"`
	Locations     storage.Locations     `json:"locations"`
}

// CreateTour — POST /api/v1/tours (admin, lead-guide)
func CreateTour(tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in tourInput
		if err := decode(r, &in); err != nil {
			fail(w, r, err)
			return
		}
		if in.PriceDiscount != nil && *in.PriceDiscount >= in.Price {
			fail(w, r, core.Validation("Invalid input data.", map[string]string{
				"priceDiscount": "should be below regular price",
			}))
			return
		}
		t := storage.Tour{
			Name:           in.Name,
			Duration:       in.Duration,
			MaxGroupSize:   in.MaxGroupSize,
			Difficulty:     in.Difficulty,
			Price:          in.Price,
			PriceDiscount:  in.PriceDiscount,
			Summary:        strings.TrimSpace(in.Summary),
			Description:    in.Description,
			ImageCover:     in.ImageCover,
			StartLocation:  in.StartLocation,
			Locations:      in.Locations,
			RatingsAverage: 4.5,
		}
		if err := tours.Create(r.Context(), &t); err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusCreated, "tour", t)
	}
}

// UpdateTour — PATCH /api/v1/tours/{id}; меняются только известные поля
func UpdateTour(tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		var fields map[string]any
		if err := pipeline.Bind(r, &fields); err != nil {
			fail(w, r, err)
			return
		}
		if bad := checkTourPatch(fields); len(bad) > 0 {
			fail(w, r, core.Validation("Invalid input data.", bad))
			return
		}
		t, err := tours.Update(r.Context(), id, fields)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusOK, "tour", t)
	}
}

// типы полей тура для PATCH
var (
	tourNumericFields = map[string]bool{
		"duration": true, "maxGroupSize": true, "price": true, "priceDiscount": true,
		"ratingsAverage": true, "ratingsQuantity": true,
	}
	tourNullableFields = map[string]bool{"priceDiscount": true, "description": true}
)

// checkTourPatch — в PATCH только скаляры подходящего типа: вложенные объекты
// и массивы до SQL не доходят (OWASP A03). Неизвестные скалярные поля отбросит хранилище.
func checkTourPatch(fields map[string]any) map[string]string {
	bad := map[string]string{}
	for k, v := range fields {
		known := storage.IsTourField(k)
		switch v.(type) {
		case nil:
			if known && !tourNullableFields[k] {
				bad[k] = "is required"
			}
		case float64:
			if known && !tourNumericFields[k] {
				bad[k] = "must be a string"
			}
		case string:
			if known && tourNumericFields[k] {
				bad[k] = "must be a number"
			}
		default:
			bad[k] = "is invalid"
		}
	}
	if d, ok := fields["difficulty"]; ok {
		if s, ok := d.(string); !ok || validate.Var(s, "oneof=easy medium difficult") != nil {
			bad["difficulty"] = "must be one of: easy medium difficult"
		}
	}
	return bad
}

// DeleteTour — DELETE /api/v1/tours/{id}
func DeleteTour(tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		if err := tours.Delete(r.Context(), id); err != nil {
			fail(w, r, err)
			return
		}
		core.NoContent(w)
	}
}
