package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Location — точка маршрута тура (GeoJSON Point + день программы)
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lon, lat
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description"`
	Day         int        `json:"day,omitempty"`
}

// Locations хранится в JSON-колонке
type Locations []Location

func (l *Locations) Scan(src any) error {
	return scanJSON(src, l)
}

func (l Locations) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// StartLocation — точка старта (JSON-колонка, может быть NULL)
type StartLocation struct {
	Location
	Valid bool `json:"-"`
}

func (s *StartLocation) Scan(src any) error {
	if src == nil {
		*s = StartLocation{}
		return nil
	}
	if err := scanJSON(src, &s.Location); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

func (s StartLocation) Value() (driver.Value, error) {
	if !s.Valid {
		return nil, nil
	}
	return json.Marshal(s.Location)
}

func (s StartLocation) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Location)
}

func (s *StartLocation) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = StartLocation{}
		return nil
	}
	if err := json.Unmarshal(b, &s.Location); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("storage: неподдерживаемый тип JSON-колонки %T", src)
}

type Tour struct {
	ID              int64         `db:"id" json:"id"`
	Name            string        `db:"name" json:"name"`
	Slug            string        `db:"slug" json:"slug"`
	Duration        int           `db:"duration" json:"duration"`
	MaxGroupSize    int           `db:"max_group_size" json:"maxGroupSize"`
	Difficulty      string        `db:"difficulty" json:"difficulty"`
	RatingsAverage  float64       `db:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int           `db:"ratings_quantity" json:"ratingsQuantity"`
	Price           float64       `db:"price" json:"price"`
	PriceDiscount   *float64      `db:"price_discount" json:"priceDiscount,omitempty"`
	Summary         string        `db:"summary" json:"summary"`
	Description     *string       `db:"description" json:"description,omitempty"`
	ImageCover      string        `db:"image_cover" json:"imageCover"`
	StartLocation   StartLocation `db:"start_location" json:"startLocation"`
	Locations       Locations     `db:"locations" json:"locations"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
}

// DurationWeeks — виртуальное поле оригинального API
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

type User struct {
	ID                int64      `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	Photo             string     `db:"photo" json:"photo"`
	Role              string     `db:"role" json:"role"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	Active            bool       `db:"active" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// ChangedPasswordAfter — пароль сменён после выдачи токена
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

type Review struct {
	ID        int64     `db:"id" json:"id"`
	Review    string    `db:"review" json:"review"`
	Rating    int       `db:"rating" json:"rating"`
	TourID    int64     `db:"tour_id" json:"tour"`
	UserID    int64     `db:"user_id" json:"user"`
	UserName  string    `db:"user_name" json:"userName,omitempty"`
	UserPhoto string    `db:"user_photo" json:"userPhoto,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Booking struct {
	ID        int64     `db:"id" json:"id"`
	TourID    int64     `db:"tour_id" json:"tour"`
	UserID    int64     `db:"user_id" json:"user"`
	Price     float64   `db:"price" json:"price"`
	Paid      bool      `db:"paid" json:"paid"`
	SessionID string    `db:"session_id" json:"sessionId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
