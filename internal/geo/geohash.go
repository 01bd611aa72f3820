package geo

import "strings"

// DefaultPrecision is the geohash length used for public venue locations.
// Six characters is roughly a 1.2 km x 0.6 km cell.
const DefaultPrecision = 6

// base32 is the geohash alphabet (no a, i, l, o).
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode returns the geohash of c with the given length. A precision below 1
// falls back to DefaultPrecision.
func Encode(c Coordinate, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var hash strings.Builder
	hash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for hash.Len() < precision {
		if even {
			mid := (lngRange[0] + lngRange[1]) / 2
			if c.Lng > mid {
				ch |= 1 << (4 - bits)
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if c.Lat > mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			hash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return hash.String()
}

// Coarse returns the default-precision geohash for an optional coordinate,
// or "" when the coordinate is absent or invalid.
func Coarse(c *Coordinate) string {
	if c == nil || !c.Valid() {
		return ""
	}
	return Encode(*c, DefaultPrecision)
}
