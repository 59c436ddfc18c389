package renderers

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const atlasSize = 512

type glyphInfo struct {
	uvMin mgl32.Vec2
	uvMax mgl32.Vec2
	size  mgl32.Vec2
	off   mgl32.Vec2
	adv   float32
}

// FontAtlas is the printable ASCII range of one face rasterized into a single alpha image.
type FontAtlas struct {
	Image      *image.Alpha
	glyphs     map[rune]glyphInfo
	ascent     float32
	lineHeight float32
}

// DefaultFontAtlas rasterizes Go Regular at size points, falling back to the
// built-in 7x13 bitmap face when the font cannot be parsed.
func DefaultFontAtlas(size float64) *FontAtlas {
	face, err := goRegularFace(size)
	if err != nil {
		return NewFontAtlas(basicfont.Face7x13)
	}
	return NewFontAtlas(face)
}

func goRegularFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

func NewFontAtlas(face font.Face) *FontAtlas {
	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]glyphInfo)

	x, y := 2, 2
	rowHeight := 0
	for r := rune(32); r < 127; r++ {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := dr.Dx(), dr.Dy()
		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			break
		}
		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)

		glyphs[r] = glyphInfo{
			uvMin: mgl32.Vec2{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: mgl32.Vec2{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  mgl32.Vec2{float32(w), float32(h)},
			off:   mgl32.Vec2{float32(dr.Min.X), float32(dr.Min.Y)},
			adv:   float32(adv) / 64.0,
		}
		x += w + 4
		rowHeight = max(rowHeight, h)
	}

	metrics := face.Metrics()
	return &FontAtlas{
		Image:      atlas,
		glyphs:     glyphs,
		ascent:     float32(metrics.Ascent.Ceil()),
		lineHeight: float32(metrics.Height.Ceil()),
	}
}

// Layout turns t into NDC glyph quads for a target of the given extent.
// Runes missing from the atlas are skipped; '\n' starts a new line.
func (a *FontAtlas) Layout(t scene.Text, extent gpu.Extent) []glyphQuad {
	sw, sh := float32(extent.Width), float32(extent.Height)
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}

	quads := make([]glyphQuad, 0, len(t.Content))
	startX := t.Position.X()
	posX := startX
	posY := t.Position.Y() + a.ascent*scale
	for _, r := range t.Content {
		if r == '\n' {
			posX = startX
			posY += a.lineHeight * scale
			continue
		}
		g, ok := a.glyphs[r]
		if !ok {
			continue
		}
		if g.size.X() > 0 && g.size.Y() > 0 {
			x0 := (posX+g.off.X()*scale)/sw*2 - 1
			y0 := 1 - (posY+g.off.Y()*scale)/sh*2
			x1 := (posX+(g.off.X()+g.size.X())*scale)/sw*2 - 1
			y1 := 1 - (posY+(g.off.Y()+g.size.Y())*scale)/sh*2
			quads = append(quads, glyphQuad{
				Rect: mgl32.Vec4{x0, y0, x1, y1},
				UV:   mgl32.Vec4{g.uvMin.X(), g.uvMin.Y(), g.uvMax.X(), g.uvMax.Y()},
			})
		}
		posX += g.adv * scale
	}
	return quads
}

// Measure returns the pixel size of text at scale.
func (a *FontAtlas) Measure(text string, scale float32) (width, height float32) {
	var current float32
	lines := 1
	for _, r := range text {
		if r == '\n' {
			width = max(width, current)
			current = 0
			lines++
			continue
		}
		if g, ok := a.glyphs[r]; ok {
			current += g.adv * scale
		}
	}
	return max(width, current), a.lineHeight * scale * float32(lines)
}

// FontRenderer draws Text components as an overlay, MaxGlyphsPerDraw quads per draw.
type FontRenderer struct {
	base[GlyphUniforms]
	hooks[*render.ScenePassData]

	atlas   *FontAtlas
	texture gpu.Texture
}

// NewFontRenderer uses atlas, or the default atlas when nil.
func NewFontRenderer(atlas *FontAtlas, opts Options) *FontRenderer {
	return &FontRenderer{
		base: newBase[GlyphUniforms]("font", opts, gpu.PipelineDesc{
			UniformSize: sizeOf[GlyphUniforms](),
			Blend:       true,
		}),
		atlas: atlas,
	}
}

func (r *FontRenderer) Atlas() *FontAtlas { return r.atlas }

func (r *FontRenderer) Init() error {
	if err := r.base.init(); err != nil {
		return err
	}
	if r.atlas == nil {
		r.atlas = DefaultFontAtlas(16)
	}
	texture, err := r.opts.Device.CreateTexture(r.desc.Label+"/atlas", r.atlas.Image)
	if err != nil {
		r.base.shutDown()
		return fmt.Errorf("%s: upload atlas: %w", r.desc.Label, err)
	}
	r.texture = texture
	return nil
}

func (r *FontRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *FontRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Traverse(node, func(n *scene.Node) {
		if !n.Flags().Has(scene.FlagFont) {
			return
		}
		text, ok := scene.GetComponent[scene.Text](rc.World, n.Id())
		if !ok {
			return
		}
		quads := r.atlas.Layout(*text, data.Extent)
		for start := 0; start < len(quads); start += MaxGlyphsPerDraw {
			chunk := quads[start:min(start+MaxGlyphsPerDraw, len(quads))]
			u := GlyphUniforms{Color: text.Color}
			copy(u.Glyphs[:], chunk)
			r.push(rc.Recorder, &u)
			bindTextures(rc.Recorder, r.texture)
			rc.Recorder.Draw(gpu.DrawCall{VertexCount: 6, InstanceCount: uint32(len(chunk))})
		}
	})
}

func (r *FontRenderer) ShutDown() {
	gpu.Release(r.texture)
	r.texture = nil
	r.base.shutDown()
}

var _ render.SceneRenderer = (*FontRenderer)(nil)
