package game

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/decker502/halfslg/pkg/battle"
)

// MainView 战斗主界面（顶部状态栏）
type MainView struct {
	BaseView

	Title       string
	Hint        string
	battleEnded bool
}

// NewMainView 创建主界面，默认显示
func NewMainView(title string, screenWidth float64) *MainView {
	v := &MainView{
		BaseView: NewBaseView(ViewNameMain, ViewLayerBase, 0, 0, screenWidth, 24),
		Title:    title,
	}
	v.SetVisible(true)
	return v
}

// ShowBattleEnd 显示战斗结束提示
func (v *MainView) ShowBattleEnd() {
	log.Printf("[MainView] 战斗结束: %s", v.Title)
	v.battleEnded = true
}

// BattleEnded 是否已显示战斗结束
func (v *MainView) BattleEnded() bool {
	return v.battleEnded
}

// Draw 绘制状态栏
func (v *MainView) Draw(screen *ebiten.Image) {
	ebitenutil.DrawRect(screen, v.X, v.Y, v.Width, v.Height, color.RGBA{0, 0, 0, 160})
	line := v.Title
	if v.Hint != "" {
		line += "  |  " + v.Hint
	}
	if v.battleEnded {
		line += "  |  BATTLE END"
	}
	ebitenutil.DebugPrintAt(screen, line, int(v.X)+6, int(v.Y)+4)
}

// UnitInfoView 战斗单位信息弹窗
type UnitInfoView struct {
	BaseView

	unit *battle.BattleUnit
}

// NewUnitInfoView 创建单位信息弹窗，默认隐藏
func NewUnitInfoView(x, y float64) *UnitInfoView {
	return &UnitInfoView{
		BaseView: NewBaseView(ViewNameUnitInfo, ViewLayerPopup, x, y, 180, 64),
	}
}

// SetUnit 设置显示的单位
func (v *UnitInfoView) SetUnit(unit *battle.BattleUnit) {
	v.unit = unit
}

// Unit 返回当前显示的单位
func (v *UnitInfoView) Unit() *battle.BattleUnit {
	return v.unit
}

// Draw 绘制单位信息
func (v *UnitInfoView) Draw(screen *ebiten.Image) {
	if v.unit == nil {
		return
	}
	ebitenutil.DrawRect(screen, v.X, v.Y, v.Width, v.Height, color.RGBA{20, 20, 40, 200})
	text := fmt.Sprintf("%s\nHP %d/%d\nMobility %d", v.unit, v.unit.HP, v.unit.MaxHP, v.unit.Mobility)
	ebitenutil.DebugPrintAt(screen, text, int(v.X)+6, int(v.Y)+4)
}
