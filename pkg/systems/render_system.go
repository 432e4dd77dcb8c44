package systems

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/utils"
)

// 格子显示状态对应的填充色
var gridRenderColors = map[components.GridRenderType]color.RGBA{
	components.GridRenderNormal:     {40, 70, 40, 255},
	components.GridRenderMoveRange:  {60, 110, 200, 255},
	components.GridRenderSkillRange: {200, 80, 60, 255},
	components.GridRenderPath:       {230, 200, 60, 255},
	components.GridRenderInfo:       {120, 120, 160, 255},
}

var (
	obstacleColor = color.RGBA{70, 60, 50, 255}
	castRingColor = color.RGBA{255, 230, 120, 255}
	outlineColor  = color.RGBA{15, 25, 15, 255}
	teamColors    = map[components.TeamColor]color.RGBA{
		components.TeamColorBlue: {70, 130, 255, 255},
		components.TeamColorRed:  {235, 70, 70, 255},
	}
)

// RenderSystem 绘制战场
//
// 使用 vector 包直接绘制格子（六边形）和战斗单位（圆形 + 血条），
// 坐标经 BattleFieldRenderer.LocalToScreenGeoM 从网格本地坐标变换到屏幕。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	renderer      *BattleFieldRenderer
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(em *ecs.EntityManager, renderer *BattleFieldRenderer) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
		renderer:      renderer,
	}
}

// Draw 绘制所有使用中的格子和战斗单位
func (s *RenderSystem) Draw(screen *ebiten.Image) {
	cfg := s.renderer.Config()
	geoM := s.renderer.LocalToScreenGeoM()
	cam, ok := ecs.GetComponent[*components.CameraComponent](s.entityManager, cfg.Camera)
	if !ok {
		return
	}
	hexRadius := float32(cfg.Layout.HexRadius * cam.Zoom)

	for _, id := range cfg.GridPool.InUse() {
		comp, ok := ecs.GetComponent[*components.GridCellRendererComponent](s.entityManager, id)
		if !ok || comp.Grid == nil {
			continue
		}
		sx, sy := geoM.Apply(comp.Grid.LocalX, comp.Grid.LocalY)
		fill := gridRenderColors[comp.RenderType]
		if !comp.Grid.IsWalkable() && comp.Grid.BattleUnit == nil {
			fill = obstacleColor
		}
		drawHex(screen, float32(sx), float32(sy), hexRadius, fill)
	}

	for _, id := range cfg.UnitPool.InUse() {
		comp, ok := ecs.GetComponent[*components.BattleUnitRendererComponent](s.entityManager, id)
		if !ok || comp.Unit == nil || comp.Unit.IsDead() {
			continue
		}
		pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, id)
		if !ok {
			continue
		}
		sx, sy := geoM.Apply(pos.X, pos.Y)
		body := teamColors[comp.TeamColor]
		if flash, ok := ecs.GetComponent[*components.FlashEffectComponent](s.entityManager, id); ok && flash.IsActive {
			body = lerpColor(body, color.RGBA{255, 255, 255, 255}, flash.Intensity)
		}
		radius := hexRadius * 0.55
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), radius, body, true)

		// 技能释放：向外扩散的光环
		if cast, ok := ecs.GetComponent[*components.SkillCastComponent](s.entityManager, id); ok && cast.Duration > 0 {
			t := math.Min(cast.Elapsed/cast.Duration, 1)
			ring := radius * float32(1+0.8*utils.EaseOutCubic(t))
			vector.StrokeCircle(screen, float32(sx), float32(sy), ring, 2, castRingColor, true)
		}

		// 血条
		barW := radius * 2
		ratio := float32(comp.Unit.HP) / float32(max(comp.Unit.MaxHP, 1))
		barX, barY := float32(sx)-radius, float32(sy)-radius-6
		vector.DrawFilledRect(screen, barX, barY, barW, 3, color.RGBA{30, 30, 30, 255}, false)
		vector.DrawFilledRect(screen, barX, barY, barW*ratio, 3, color.RGBA{80, 220, 80, 255}, false)
	}
}

// drawHex 绘制尖顶六边形：内切圆填充 + 六条边
func drawHex(screen *ebiten.Image, cx, cy, radius float32, fill color.Color) {
	vector.DrawFilledCircle(screen, cx, cy, radius*0.8, fill, true)
	for i := 0; i < 6; i++ {
		a0 := math.Pi/6 + float64(i)*math.Pi/3
		a1 := a0 + math.Pi/3
		vector.StrokeLine(screen,
			cx+radius*float32(math.Cos(a0)), cy+radius*float32(math.Sin(a0)),
			cx+radius*float32(math.Cos(a1)), cy+radius*float32(math.Sin(a1)),
			1.5, outlineColor, true)
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(utils.Lerp(float64(x), float64(y), t))
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), lerp(a.A, b.A)}
}
