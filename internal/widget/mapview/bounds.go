package mapview

import "encoding/json"

// Bounds — прямоугольник, покрывающий точки (юго-запад, северо-восток).
// Нулевое значение означает пустой прямоугольник.
type Bounds struct {
	sw, ne LngLat
	set    bool
}

// Extend — новый прямоугольник, покрывающий и p
func (b Bounds) Extend(p LngLat) Bounds {
	if !b.set {
		return Bounds{sw: p, ne: p, set: true}
	}
	b.sw = LngLat{min(b.sw[0], p[0]), min(b.sw[1], p[1])}
	b.ne = LngLat{max(b.ne[0], p[0]), max(b.ne[1], p[1])}
	return b
}

func (b Bounds) IsEmpty() bool { return !b.set }

func (b Bounds) SouthWest() LngLat { return b.sw }
func (b Bounds) NorthEast() LngLat { return b.ne }

// Contains — точка внутри или на границе
func (b Bounds) Contains(p LngLat) bool {
	return b.set &&
		p[0] >= b.sw[0] && p[0] <= b.ne[0] &&
		p[1] >= b.sw[1] && p[1] <= b.ne[1]
}

// MarshalJSON — [[swLng, swLat], [neLng, neLat]] как в LngLatBounds; пустой — null
func (b Bounds) MarshalJSON() ([]byte, error) {
	if !b.set {
		return []byte("null"), nil
	}
	return json.Marshal([2]LngLat{b.sw, b.ne})
}
