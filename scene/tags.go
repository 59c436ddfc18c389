package scene

import "slices"

type Tag string

const (
	TagMainCamera      Tag = "main_camera"
	TagMainLight       Tag = "main_light"
	TagShadows         Tag = "shadows"
	TagWaterReflection Tag = "water_reflection"
	TagWaterRefraction Tag = "water_refraction"
	TagSun             Tag = "sun"
	TagLensFlare       Tag = "lens_flare"
	TagSky             Tag = "sky"
	TagTerrain         Tag = "terrain"
	TagWater           Tag = "water"
	TagDebugOverlay    Tag = "debug_overlay"
)

type TagSet []Tag

// HasAll reports whether every tag in want is present.
func (s TagSet) HasAll(want ...Tag) bool {
	for _, t := range want {
		if !slices.Contains(s, t) {
			return false
		}
	}
	return true
}
