// Package tilekey implements the §3 Tile Key value and the §6 URL
// template substitution rules, grounded on the maptile.Tile shape
// used throughout the tiler examples in the retrieved pack.
package tilekey

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Key is the spec's Tile Key: (level, x, y, profile). Two keys are
// equal iff all four components match — Key is comparable with == and
// usable directly as a map key.
type Key struct {
	Tile    maptile.Tile
	Profile string
}

// New builds a Key from raw z/x/y coordinates and a profile name.
func New(z maptile.Zoom, x, y uint32, profile string) Key {
	return Key{Tile: maptile.New(x, y, z), Profile: profile}
}

// Level returns the key's zoom level.
func (k Key) Level() maptile.Zoom { return k.Tile.Z }

// X returns the key's XYZ-convention column.
func (k Key) X() uint32 { return k.Tile.X }

// Y returns the key's XYZ-convention row (Google/XYZ, y-from-north).
func (k Key) Y() uint32 { return k.Tile.Y }

// FlippedY returns the TMS-convention row, y-from-south: 2^z - 1 - y.
// MBTiles storage uses this convention; XYZ tile servers do not.
func (k Key) FlippedY() uint32 {
	return (uint32(1) << uint32(k.Tile.Z)) - 1 - k.Tile.Y
}

// String renders the key as "z/x/y/profile", used as a log field and
// as the keygate's bucket key.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(k.Tile.Z), 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatUint(uint64(k.Tile.X), 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatUint(uint64(k.Tile.Y), 10))
	b.WriteByte('/')
	b.WriteString(k.Profile)
	return b.String()
}

// ExpandURL performs the §6 single-pass template substitution: each
// of "{z}", "{x}", "{y}", "{-y}" is replaced by its decimal value.
// Single-pass means each substring is matched against the original
// template, not against partially-substituted output, so a numeral
// produced by one substitution can never be mistaken for another
// placeholder.
func ExpandURL(template string, k Key) string {
	replacer := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(k.Tile.Z), 10),
		"{x}", strconv.FormatUint(uint64(k.Tile.X), 10),
		"{y}", strconv.FormatUint(uint64(k.Tile.Y), 10),
		"{-y}", strconv.FormatUint(uint64(k.FlippedY()), 10),
	)
	return replacer.Replace(template)
}

// Bounds returns the key's geographic bounding box under its tile
// grid, expanded on each side by bufferDegrees — used by the
// rasterized-feature-tile path (§4.6) to query a feature source with
// enough margin that edge-crossing geometry still rasterizes cleanly.
func (k Key) Bounds(bufferDegrees float64) (minX, minY, maxX, maxY float64) {
	bound := k.Tile.Bound()
	return bound.Min.X() - bufferDegrees, bound.Min.Y() - bufferDegrees,
		bound.Max.X() + bufferDegrees, bound.Max.Y() + bufferDegrees
}
