package domain

import (
	"fmt"
	"strings"
)

// PhysicalQuantity describes how a display unit maps onto its SI base
// unit. Conversion is linear: si = display*ScaleFactor + Offset.
type PhysicalQuantity struct {
	Name        string
	BaseUnit    string
	DisplayUnit string
	ScaleFactor float64
	Offset      float64
}

// quantityCatalog holds the built-in unit families available to counter
// steps. Values on disk are always in the base unit.
var quantityCatalog = map[string]PhysicalQuantity{
	"count":         {Name: "count", BaseUnit: "1", DisplayUnit: "1", ScaleFactor: 1},
	"distance_m":    {Name: "distance_m", BaseUnit: "m", DisplayUnit: "m", ScaleFactor: 1},
	"distance_km":   {Name: "distance_km", BaseUnit: "m", DisplayUnit: "km", ScaleFactor: 1000},
	"distance_mi":   {Name: "distance_mi", BaseUnit: "m", DisplayUnit: "mi", ScaleFactor: 1609.344},
	"mass_kg":       {Name: "mass_kg", BaseUnit: "kg", DisplayUnit: "kg", ScaleFactor: 1},
	"mass_lb":       {Name: "mass_lb", BaseUnit: "kg", DisplayUnit: "lb", ScaleFactor: 0.45359237},
	"duration_s":    {Name: "duration_s", BaseUnit: "s", DisplayUnit: "s", ScaleFactor: 1},
	"duration_min":  {Name: "duration_min", BaseUnit: "s", DisplayUnit: "min", ScaleFactor: 60},
	"duration_hr":   {Name: "duration_hr", BaseUnit: "s", DisplayUnit: "hr", ScaleFactor: 3600},
	"volume_ml":     {Name: "volume_ml", BaseUnit: "l", DisplayUnit: "ml", ScaleFactor: 0.001},
	"volume_oz":     {Name: "volume_oz", BaseUnit: "l", DisplayUnit: "oz", ScaleFactor: 0.0295735295625},
	"temperature_c": {Name: "temperature_c", BaseUnit: "K", DisplayUnit: "°C", ScaleFactor: 1, Offset: 273.15},
	"temperature_f": {Name: "temperature_f", BaseUnit: "K", DisplayUnit: "°F", ScaleFactor: 5.0 / 9.0, Offset: 255.3722222222222},
}

// LookupQuantity resolves a quantity by name.
func LookupQuantity(name string) (PhysicalQuantity, error) {
	q, ok := quantityCatalog[strings.TrimSpace(name)]
	if !ok {
		return PhysicalQuantity{}, fmt.Errorf("%w: unknown quantity %q", ErrInvalidQuantity, name)
	}
	return q, nil
}

// ToSI converts a display-unit value to its canonical SI value.
func ToSI(value float64, q PhysicalQuantity) (float64, error) {
	if q.ScaleFactor <= 0 {
		return 0, fmt.Errorf("%w: non-positive scale factor for %q", ErrInvalidQuantity, q.Name)
	}
	return value*q.ScaleFactor + q.Offset, nil
}

// FromSI converts a canonical SI value back to the display unit.
func FromSI(canonical float64, q PhysicalQuantity) (float64, error) {
	if q.ScaleFactor <= 0 {
		return 0, fmt.Errorf("%w: non-positive scale factor for %q", ErrInvalidQuantity, q.Name)
	}
	return (canonical - q.Offset) / q.ScaleFactor, nil
}
