package handler

// reviews.go — /api/v1/reviews и вложенный /api/v1/tours/{tourId}/reviews
import (
	"net/http"
	"strings"

	"natours/internal/core"
	"natours/internal/storage"

	"github.com/go-chi/chi/v5"
)

type reviewInput struct {
	Review string `json:"review" validate:"required,max=2000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Tour   int64  `json:"tour"`
}

// tourIDFromRoute — id тура из вложенного маршрута (0, если маршрут не вложенный)
func tourIDFromRoute(r *http.Request) (int64, error) {
	if chi.URLParam(r, "tourId") == "" {
		return 0, nil
	}
	return idParam(r, "tourId")
}

// ListReviews — все отзывы или отзывы одного тура
func ListReviews(reviews ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tourID, err := tourIDFromRoute(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		items, err := reviews.List(r.Context(), tourID)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.SuccessList(w, "reviews", items, len(items))
	}
}

// GetReview — GET /api/v1/reviews/{id}
func GetReview(reviews ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		rv, err := reviews.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusOK, "review", rv)
	}
}

// CreateReview — автор берётся из токена, тур из маршрута или тела
func CreateReview(reviews ReviewStore, tours TourStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		var in reviewInput
		if err := decode(r, &in); err != nil {
			fail(w, r, err)
			return
		}
		tourID, err := tourIDFromRoute(r)
		if err != nil {
			fail(w, r, err)
			return
		}
		if tourID == 0 {
			tourID = in.Tour
		}
		if tourID <= 0 {
			fail(w, r, core.Validation("Invalid input data.", map[string]string{"tour": "Review must belong to a tour."}))
			return
		}
		// несуществующий тур даёт 404, а не ошибка внешнего ключа
		if _, err := tours.Get(r.Context(), tourID); err != nil {
			fail(w, r, err)
			return
		}
		rv := storage.Review{
			Review: strings.TrimSpace(in.Review),
			Rating: in.Rating,
			TourID: tourID,
			UserID: u.ID,
		}
		if err := reviews.Create(r.Context(), &rv); err != nil {
			fail(w, r, err)
			return
		}
		core.Success(w, http.StatusCreated, "review", rv)
	}
}

// DeleteReview — автор удаляет свой отзыв, admin любой
func DeleteReview(reviews ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			fail(w, r, core.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		id, err := idParam(r, "id")
		if err != nil {
			fail(w, r, err)
			return
		}
		rv, err := reviews.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		if rv.UserID != u.ID && u.Role != storage.RoleAdmin {
			fail(w, r, core.Forbidden("You do not have permission to perform this action"))
			return
		}
		if err := reviews.Delete(r.Context(), id); err != nil {
			fail(w, r, err)
			return
		}
		core.NoContent(w)
	}
}
