package domain

import "maps"

// Static per-location weather and demand data consumed by the renderer.
// Both maps are keyed by location index.
type Overlay struct {
	Weather map[int]WeatherCode
	Demand  map[int]float64
}

// WeatherAt classifies the weather of location idx, falling back to the
// default class when the location has no code or an unknown one.
func (o Overlay) WeatherAt(idx int) WeatherClass {
	code, ok := o.Weather[idx]
	if !ok {
		return DefaultWeather
	}
	return Classify(code)
}

// DemandAt returns the demand of location idx. A missing entry means no label.
func (o Overlay) DemandAt(idx int) (float64, bool) {
	d, ok := o.Demand[idx]
	return d, ok
}

// Clone returns a deep copy so callers can hand it across goroutines.
func (o Overlay) Clone() Overlay {
	return Overlay{
		Weather: maps.Clone(o.Weather),
		Demand:  maps.Clone(o.Demand),
	}
}
