package mapview

import "encoding/json"

// записанные вызовы Canvas
type PlanMarker struct {
	At LngLat `json:"at"`
	MarkerOptions
}

type PlanPopup struct {
	At LngLat `json:"at"`
	PopupOptions
}

type PlanFit struct {
	Bounds  Bounds  `json:"bounds"`
	Padding Padding `json:"padding"`
}

// Plan — Canvas, который только записывает вызовы. Браузерный скрипт
// проигрывает их на Mapbox GL.
type Plan struct {
	Map     MapOptions   `json:"map"`
	Markers []PlanMarker `json:"markers"`
	Popups  []PlanPopup  `json:"popups"`
	Fit     *PlanFit     `json:"fit"`
}

func (p *Plan) Init(opts MapOptions) error {
	*p = Plan{Map: opts, Markers: []PlanMarker{}, Popups: []PlanPopup{}}
	return nil
}

func (p *Plan) AddMarker(at LngLat, opts MarkerOptions) {
	p.Markers = append(p.Markers, PlanMarker{At: at, MarkerOptions: opts})
}

func (p *Plan) AddPopup(at LngLat, opts PopupOptions) {
	p.Popups = append(p.Popups, PlanPopup{At: at, PopupOptions: opts})
}

func (p *Plan) FitBounds(b Bounds, padding Padding) {
	p.Fit = &PlanFit{Bounds: b, Padding: padding}
}

// JSON — план для атрибута data-plan страницы тура
func (p *Plan) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BuildPlan — Render поверх нового Plan. ErrNoWaypoints не считается ошибкой:
// план без Fit тоже корректен.
func BuildPlan(opts Options, waypoints []Waypoint) (*Plan, error) {
	p := &Plan{}
	if err := Render(p, opts, waypoints); err != nil && err != ErrNoWaypoints {
		return nil, err
	}
	return p, nil
}
