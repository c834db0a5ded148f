package scene

import (
	"github.com/Faultbox/midgard-uo/pkg/math"
	"github.com/Faultbox/midgard-uo/pkg/tiledata"
)

// HueMode tells the shader how to apply a hue.
type HueMode int

// Hue modes.
const (
	HueNone HueMode = iota
	HueFull
	HuePartial
)

// HueVector packs a static's hue for the shader as (hue, mode, 0). Bit 15
// of the hue, or the PartialHue tile flag, selects partial hueing. A zero
// hue is never partial.
func HueVector(hue uint16, flags tiledata.Flag) math.Vec3 {
	partial := flags.Any(tiledata.PartialHue)
	if hue&0x8000 != 0 {
		partial = true
		hue &= 0x7FFF
	}

	mode := HueNone
	if hue != 0 {
		mode = HueFull
		if partial {
			mode = HuePartial
		}
	}
	return math.Vec3{X: float32(hue), Y: float32(mode)}
}

// IsRock reports whether a static graphic is a rock. Rocks cast shadows and
// turn to face the camera.
func IsRock(id uint16) bool {
	switch id {
	case 4945, 4948, 4950, 4953, 4955, 4958, 4959, 4960, 4962:
		return true
	}
	return id >= 6001 && id <= 6012
}

var trees = map[uint16]struct{}{}

func init() {
	for _, id := range []uint16{
		3221, 3222, 3225, 3227, 3228, 3229, 3230, 3238, 3240, 3242, 3243,
		3273, 3274, 3275, 3276, 3277, 3280, 3283, 3286, 3288, 3290, 3293,
		3296, 3299, 3302, 3320, 3323, 3326, 3329, 3394, 3395, 3417, 3440,
		3461, 3476, 3480, 3484, 3488, 3492, 3496, 4792, 4793, 4794, 4795,
		12593, 12596, 12599, 12602, 12881, 14492, 39215, 39217, 39219,
		39223, 39225, 39280, 39284, 39288, 39290, 46822,
	} {
		trees[id] = struct{}{}
	}
}

// IsTree reports whether a static graphic is a tree trunk or canopy.
func IsTree(id uint16) bool {
	_, ok := trees[id]
	return ok
}

// IsShadowCaster reports whether a static is drawn into the shadow map.
func IsShadowCaster(id uint16, flags tiledata.Flag) bool {
	return flags.Any(tiledata.Foliage) || IsRock(id) || IsTree(id)
}
