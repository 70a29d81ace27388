package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"natours/internal/core"
	"natours/internal/pipeline"
	"natours/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func duplicate(value, key string) error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '" + value + "' for key '" + key + "'"}
}

type fakeTours struct {
	mu         sync.Mutex
	items      map[int64]*storage.Tour
	nextID     int64
	lastQuery  storage.TourQuery
	lastFields map[string]any
	booked     map[int64][]storage.Tour
}

func newFakeTours(tours ...storage.Tour) *fakeTours {
	f := &fakeTours{items: map[int64]*storage.Tour{}, booked: map[int64][]storage.Tour{}}
	for i := range tours {
		t := tours[i]
		if t.ID == 0 {
			f.nextID++
			t.ID = f.nextID
		} else if t.ID > f.nextID {
			f.nextID = t.ID
		}
		f.items[t.ID] = &t
	}
	return f
}

func (f *fakeTours) List(_ context.Context, q storage.TourQuery) ([]storage.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	out := make([]storage.Tour, 0, len(f.items))
	for _, t := range f.items {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTours) Get(_ context.Context, id int64) (*storage.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTours) GetBySlug(_ context.Context, slug string) (*storage.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTours) Create(_ context.Context, t *storage.Tour) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Name == t.Name {
			return duplicate(t.Name, "tours.name")
		}
	}
	f.nextID++
	t.ID = f.nextID
	t.Slug = storage.Slugify(t.Name)
	cp := *t
	f.items[t.ID] = &cp
	return nil
}

func (f *fakeTours) Update(_ context.Context, id int64, fields map[string]any) (*storage.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFields = fields
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if name, ok := fields["name"].(string); ok {
		t.Name, t.Slug = name, storage.Slugify(name)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTours) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTours) BookedBy(_ context.Context, userID int64) ([]storage.Tour, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Tour{}, f.booked[userID]...), nil
}

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*storage.User
	nextID int64
}

func newFakeUsers(users ...storage.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*storage.User{}}
	for i := range users {
		u := users[i]
		f.byID[u.ID] = &u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *storage.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return duplicate(u.Email, "users.email")
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.Active = true
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context) ([]storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) UpdateData(_ context.Context, id int64, name, email string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Name, u.Email = name, email
	cp := *u
	return &cp, nil
}

type fakeReviews struct {
	mu     sync.Mutex
	items  map[int64]*storage.Review
	nextID int64
}

func newFakeReviews(reviews ...storage.Review) *fakeReviews {
	f := &fakeReviews{items: map[int64]*storage.Review{}}
	for i := range reviews {
		rv := reviews[i]
		f.items[rv.ID] = &rv
		if rv.ID > f.nextID {
			f.nextID = rv.ID
		}
	}
	return f
}

func (f *fakeReviews) List(_ context.Context, tourID int64) ([]storage.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []storage.Review{}
	for _, rv := range f.items {
		if tourID == 0 || rv.TourID == tourID {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviews) Get(_ context.Context, id int64) (*storage.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeReviews) Create(_ context.Context, rv *storage.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.TourID == rv.TourID && existing.UserID == rv.UserID {
			return duplicate("1-1", "reviews.tour_user")
		}
	}
	f.nextID++
	rv.ID = f.nextID
	cp := *rv
	f.items[rv.ID] = &cp
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type fakeBookings struct {
	mu    sync.Mutex
	items []storage.Booking
}

func (f *fakeBookings) Create(_ context.Context, b *storage.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.SessionID == b.SessionID {
			return duplicate(b.SessionID, "bookings.session_id")
		}
	}
	b.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *b)
	return nil
}

func (f *fakeBookings) List(_ context.Context) ([]storage.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Booking{}, f.items...), nil
}

// serve — маршрут chi за цепочкой с декодированием тела и ErrorSink без шаблонов
func serve(user *storage.User, register func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(context.WithValue(req.Context(), core.CtxUser, user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.NotFound(NotFound)
	register(r)
	return pipeline.New(r, NewErrorSink(false, nil),
		pipeline.NewBodyDecoder(10240),
		pipeline.NewCookieParser(),
	)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
