package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupQuantity(t *testing.T) {
	q, err := LookupQuantity("distance_km")
	require.NoError(t, err)
	require.Equal(t, "m", q.BaseUnit)
	require.Equal(t, 1000.0, q.ScaleFactor)

	_, err = LookupQuantity("furlongs")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	// Names are trimmed before lookup.
	_, err = LookupQuantity("  mass_kg ")
	require.NoError(t, err)
}

func TestToSIConversions(t *testing.T) {
	cases := []struct {
		quantity string
		display  float64
		want     float64
	}{
		{"count", 12, 12},
		{"distance_km", 5, 5000},
		{"distance_mi", 1, 1609.344},
		{"mass_lb", 10, 4.5359237},
		{"duration_min", 30, 1800},
		{"duration_hr", 1.5, 5400},
		{"volume_ml", 250, 0.25},
		{"temperature_c", 0, 273.15},
		{"temperature_c", 100, 373.15},
		{"temperature_f", 32, 273.15},
	}
	for _, tc := range cases {
		q, err := LookupQuantity(tc.quantity)
		require.NoError(t, err)
		got, err := ToSI(tc.display, q)
		require.NoError(t, err)
		require.InDelta(t, tc.want, got, 1e-9, "%s %v", tc.quantity, tc.display)
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	values := []float64{0.001, 1, 42.5, 10000, 123456.789}
	for name, q := range quantityCatalog {
		for _, v := range values {
			si, err := ToSI(v, q)
			require.NoError(t, err)
			back, err := FromSI(si, q)
			require.NoError(t, err)
			if math.Abs(back-v) > 1e-9*math.Abs(v) {
				t.Fatalf("%s: round trip of %v drifted to %v", name, v, back)
			}
		}
	}
}

func TestConversionRejectsDegenerateQuantity(t *testing.T) {
	bad := PhysicalQuantity{Name: "broken", ScaleFactor: 0}

	_, err := ToSI(1, bad)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = FromSI(1, bad)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
