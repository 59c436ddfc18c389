package scene

// FlagSet is the capability set a node advertises to renderers.
type FlagSet uint64

const (
	FlagRender FlagSet = 1 << iota
	FlagRenderTextureless
	FlagRenderNormalMapped
	FlagRenderParallaxMapped
	FlagRenderConeStepMapped
	FlagTerrain
	FlagTerrainNormalMapped
	FlagTerrainParallaxMapped
	FlagTerrainConeStepMapped
	FlagAnimation
	FlagAnimationTextureless
	FlagAnimationNormalMapped
	FlagAnimationParallaxMapped
	FlagAnimationConeStepMapped
	FlagWater
	FlagSkyBox
	FlagSky
	FlagParticles
	FlagFont
	FlagSun
	FlagLensFlare
	FlagCastsShadows
	FlagDebug
)

// Has reports whether s carries every flag in required.
func (s FlagSet) Has(required FlagSet) bool {
	return s&required == required
}

func (s FlagSet) With(flags FlagSet) FlagSet {
	return s | flags
}

func (s FlagSet) Without(flags FlagSet) FlagSet {
	return s &^ flags
}
