package protocol

import "strings"

// Canonical convention defaults. Templates are authored bottom-left, Y-up.
const (
	DefaultUnits      = "mm"
	DefaultOrigin     = "bottom-left"
	DefaultYDirection = "up"
)

// LayoutContext holds the canonical geometry declared in an envelope.
//
// Constructed once per envelope (by the Emitter when authoring, or by
// DecodeEnvelope when consuming) and never mutated afterwards. A driver
// receives it through exactly one Configure call per run.
//
// Origin and YDirection are logically coupled in every real renderer
// (bottom-left pairs with up, top-left with down) but the model stores
// them independently; the transform relies only on whether the canonical
// convention matches the device convention, never on geometric reasoning
// about arbitrary combinations.
type LayoutContext struct {
	Width      float64
	Height     float64
	Units      string
	Origin     string
	YDirection string
	// DPI is optional; 0 means unset.
	DPI float64
}

// DefaultLayout returns a LayoutContext with the canonical convention and
// no geometry (zero width/height, unset DPI).
func DefaultLayout() LayoutContext {
	return LayoutContext{
		Units:      DefaultUnits,
		Origin:     DefaultOrigin,
		YDirection: DefaultYDirection,
	}
}

// ToDeviceCoords converts a canonical point into the device space declared
// by deviceOrigin and deviceYDirection.
//
// When both convention strings match (case-insensitive) the point passes
// through unchanged. Otherwise only the Y axis flips: every supported
// convention pair shares the same X direction, so the transform is a single
// subtraction against Height rather than a full affine pipeline.
//
// Degenerate case: when a flip is required but Height is 0 (unset), the
// flip is skipped and the point is returned unchanged. There is no
// reference height to flip against; coordinates on a real mismatched
// device would be wrong, but the behavior is kept as-is for compatibility
// with existing payloads that omit geometry.
//
// The transform is idempotent for matching conventions and an involution
// for mismatched ones: applying it twice with the same mismatched pair
// reproduces the original Y exactly (for non-degenerate heights).
func (lc LayoutContext) ToDeviceCoords(x, y float64, deviceOrigin, deviceYDirection string) (float64, float64) {
	originMatch := strings.EqualFold(lc.Origin, deviceOrigin)
	directionMatch := strings.EqualFold(lc.YDirection, deviceYDirection)
	if originMatch && directionMatch {
		return x, y
	}
	if lc.Height <= 0 {
		return x, y
	}
	return x, lc.Height - y
}
