// Package mapview раскладывает точки маршрута тура на карте: маркер и подпись
// на каждый день, затем вид карты подгоняется под все точки.
//
// Сама карта (Mapbox GL в браузере) скрыта за интерфейсом Canvas. На сервере
// используется Plan: он записывает вызовы и отдаётся странице тура как JSON.
package mapview

import (
	"errors"
	"fmt"
	"html"
)

// ErrNoWaypoints — точек нет: карта создана, но вид не подгоняется
var ErrNoWaypoints = errors.New("mapview: нет точек маршрута")

// LngLat — долгота, широта
type LngLat [2]float64

func (p LngLat) Lng() float64 { return p[0] }
func (p LngLat) Lat() float64 { return p[1] }

// Waypoint — точка маршрута
type Waypoint struct {
	Coordinates LngLat `json:"coordinates"`
	Day         int    `json:"day"`
	Description string `json:"description"`
}

// MapOptions — параметры создания карты
type MapOptions struct {
	Container   string `json:"container"`
	Style       string `json:"style"`
	AccessToken string `json:"accessToken,omitempty"`
	ScrollZoom  bool   `json:"scrollZoom"`
}

type MarkerOptions struct {
	ClassName string `json:"className"`
	Anchor    string `json:"anchor"`
}

type PopupOptions struct {
	Offset int    `json:"offset"`
	HTML   string `json:"html"`
}

type Padding struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Canvas — возможности карты, которые нужны Render
type Canvas interface {
	Init(opts MapOptions) error
	AddMarker(at LngLat, opts MarkerOptions)
	AddPopup(at LngLat, opts PopupOptions)
	FitBounds(b Bounds, padding Padding)
}

// Options — стиль и токен провайдера карт
type Options struct {
	Container   string
	Style       string
	AccessToken string
}

const (
	markerClass  = "marker"
	markerAnchor = "bottom"
	popupOffset  = 30
)

// DefaultPadding — отступы вида карты от краёв
var DefaultPadding = Padding{Top: 200, Bottom: 150, Left: 100, Right: 100}

// PopupText — "Day 1: Banff"
func PopupText(w Waypoint) string {
	return fmt.Sprintf("Day %d: %s", w.Day, w.Description)
}

// Render создаёт карту без зума колесом, маркер и подпись на каждую точку
// по порядку и подгоняет вид под все точки.
// Пустой список: карта создаётся, FitBounds не вызывается, ошибка ErrNoWaypoints.
func Render(c Canvas, opts Options, waypoints []Waypoint) error {
	container := opts.Container
	if container == "" {
		container = "map"
	}
	if err := c.Init(MapOptions{
		Container:   container,
		Style:       opts.Style,
		AccessToken: opts.AccessToken,
		ScrollZoom:  false,
	}); err != nil {
		return fmt.Errorf("mapview init: %w", err)
	}

	var bounds Bounds
	for _, w := range waypoints {
		c.AddMarker(w.Coordinates, MarkerOptions{ClassName: markerClass, Anchor: markerAnchor})
		c.AddPopup(w.Coordinates, PopupOptions{
			Offset: popupOffset,
			HTML:   "<p>" + html.EscapeString(PopupText(w)) + "</p>",
		})
		bounds = bounds.Extend(w.Coordinates)
	}

	if bounds.IsEmpty() {
		return ErrNoWaypoints
	}
	c.FitBounds(bounds, DefaultPadding)
	return nil
}
