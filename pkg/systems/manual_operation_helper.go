package systems

import (
	"log"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/ecs"
)

// ManualCommandHandler 接收手动操作产生的指令
type ManualCommandHandler interface {
	OnManualMove(unit *battle.BattleUnit, target *battle.GridUnit)
	OnManualStay(unit *battle.BattleUnit)
	OnManualSkill(unit *battle.BattleUnit, skill *battle.BattleSkill, target *battle.GridUnit)
}

// ManualOperationState 手动操作状态
type ManualOperationState int

const (
	ManualStateIdle                 ManualOperationState = iota // 空闲：点击单位查看信息
	ManualStateSelectingMoveTarget                              // 选择移动目标
	ManualStateSelectingSkillTarget                             // 选择技能目标
)

// ManualOperationHelper 战场手动操作逻辑
//
// 从 BattleFieldRenderer 中拆分出来，负责点击反馈和格子高亮。
// 高亮通过修改格子渲染器的 RenderType 实现，取消时恢复为 GridRenderNormal。
type ManualOperationHelper struct {
	renderer *BattleFieldRenderer
	handler  ManualCommandHandler

	state        ManualOperationState
	manualUnit   *battle.BattleUnit // 当前手动操作的单位
	pendingSkill *battle.BattleSkill

	// 各显示状态下被修改过的格子，用于取消
	activeGrids map[components.GridRenderType][]*battle.GridUnit
}

// NewManualOperationHelper 创建手动操作Helper
func NewManualOperationHelper(renderer *BattleFieldRenderer, handler ManualCommandHandler) *ManualOperationHelper {
	return &ManualOperationHelper{
		renderer:    renderer,
		handler:     handler,
		activeGrids: make(map[components.GridRenderType][]*battle.GridUnit),
	}
}

// State 返回当前操作状态
func (h *ManualOperationHelper) State() ManualOperationState {
	return h.state
}

// ManualBattleUnit 返回当前手动操作的单位
func (h *ManualOperationHelper) ManualBattleUnit() *battle.BattleUnit {
	return h.manualUnit
}

// SetManualBattleUnit 设置手动操作的单位，会取消进行中的操作
func (h *ManualOperationHelper) SetManualBattleUnit(unit *battle.BattleUnit) {
	h.ClickedCancel()
	h.manualUnit = unit
}

// OnBattleUnitAndGridTouched 点击了格子（以及格子上的单位）
func (h *ManualOperationHelper) OnBattleUnitAndGridTouched(grid *battle.GridUnit, unit *battle.BattleUnit) {
	switch h.state {
	case ManualStateSelectingMoveTarget:
		if !h.isActive(components.GridRenderMoveRange, grid) || !grid.IsWalkable() {
			log.Printf("[ManualOperation] %s 不在移动范围内", grid)
			return
		}
		mover := h.manualUnit
		h.ClickedCancel()
		if h.handler != nil {
			h.handler.OnManualMove(mover, grid)
		}

	case ManualStateSelectingSkillTarget:
		if !h.isActive(components.GridRenderSkillRange, grid) {
			log.Printf("[ManualOperation] %s 不在技能范围内", grid)
			return
		}
		caster, skill := h.manualUnit, h.pendingSkill
		h.ClickedCancel()
		if h.handler != nil {
			h.handler.OnManualSkill(caster, skill, grid)
		}

	default:
		// 空闲状态：查看单位信息和移动范围
		h.SetCircularRangeRenderStateActive(false, components.GridRenderInfo, -1, -1, -1)
		if unit == nil {
			h.renderer.hideUnitInfo()
			return
		}
		h.SetCircularRangeRenderStateActive(true, components.GridRenderInfo, grid.Column, grid.Row, unit.Mobility)
		h.renderer.showUnitInfo(unit)
	}
}

// BattleUnitMove 单位选择移动，高亮可到达的格子
func (h *ManualOperationHelper) BattleUnitMove(unit *battle.BattleUnit) {
	if !h.canOperate(unit) {
		return
	}
	h.ClickedCancel()
	h.manualUnit = unit
	h.state = ManualStateSelectingMoveTarget

	h.activate(components.GridRenderMoveRange, h.renderer.field.BattleMap.ReachableGrids(unit.Grid, unit.Mobility))
}

// BattleUnitStay 单位选择待命
func (h *ManualOperationHelper) BattleUnitStay(unit *battle.BattleUnit) {
	if !h.canOperate(unit) {
		return
	}
	h.ClickedCancel()
	if h.handler != nil {
		h.handler.OnManualStay(unit)
	}
}

// BattleUnitUseSkill 单位选择技能，高亮释放范围
func (h *ManualOperationHelper) BattleUnitUseSkill(unit *battle.BattleUnit, skill *battle.BattleSkill) {
	if !h.canOperate(unit) || skill == nil {
		return
	}
	h.ClickedCancel()
	h.manualUnit = unit
	h.pendingSkill = skill
	h.state = ManualStateSelectingSkillTarget
	h.SetCircularRangeRenderStateActive(true, components.GridRenderSkillRange, unit.Grid.Column, unit.Grid.Row, skill.ReleaseRadius)
}

// ClickedCancel 取消当前操作，清除所有高亮
func (h *ManualOperationHelper) ClickedCancel() {
	for renderType := range h.activeGrids {
		h.deactivate(renderType)
	}
	h.state = ManualStateIdle
	h.pendingSkill = nil
}

// SetCircularRangeRenderStateActive 设置圆形区域的显示状态
//
// 参数：
//   - active: false 时恢复该显示状态下的所有格子，其余参数忽略
//   - renderType: 显示状态
//   - centerColumn, centerRow, radius: 区域中心和半径（六边形步数）
func (h *ManualOperationHelper) SetCircularRangeRenderStateActive(active bool, renderType components.GridRenderType, centerColumn, centerRow, radius int) {
	h.deactivate(renderType)
	if !active || h.renderer.field == nil || radius < 0 {
		return
	}
	h.activate(renderType, h.renderer.field.BattleMap.GridsInRange(centerColumn, centerRow, radius))
}

// SetGridsRenderStateActive 设置路径的显示状态
func (h *ManualOperationHelper) SetGridsRenderStateActive(active bool, gridPath []*battle.GridUnit) {
	h.deactivate(components.GridRenderPath)
	if !active {
		return
	}
	h.activate(components.GridRenderPath, gridPath)
}

// ActiveGrids 返回处于指定显示状态的格子
func (h *ManualOperationHelper) ActiveGrids(renderType components.GridRenderType) []*battle.GridUnit {
	return h.activeGrids[renderType]
}

func (h *ManualOperationHelper) canOperate(unit *battle.BattleUnit) bool {
	if unit == nil || unit.Grid == nil || h.renderer.field == nil {
		log.Printf("[ManualOperation] 单位不可操作: %v", unit)
		return false
	}
	if unit.IsDead() {
		log.Printf("[ManualOperation] 单位已阵亡: %s", unit)
		return false
	}
	return true
}

func (h *ManualOperationHelper) isActive(renderType components.GridRenderType, grid *battle.GridUnit) bool {
	for _, g := range h.activeGrids[renderType] {
		if g == grid {
			return true
		}
	}
	return false
}

func (h *ManualOperationHelper) activate(renderType components.GridRenderType, grids []*battle.GridUnit) {
	var applied []*battle.GridUnit
	for _, g := range grids {
		if g == nil {
			continue
		}
		h.setRenderType(g, renderType)
		applied = append(applied, g)
	}
	if len(applied) > 0 {
		h.activeGrids[renderType] = applied
	}
}

func (h *ManualOperationHelper) deactivate(renderType components.GridRenderType) {
	grids, ok := h.activeGrids[renderType]
	if !ok {
		return
	}
	delete(h.activeGrids, renderType)
	for _, g := range grids {
		if comp, ok := h.gridRenderer(g); ok && comp.RenderType == renderType {
			comp.RenderType = h.topRenderType(g)
		}
	}
}

// topRenderType 格子仍处于的其他显示状态，没有时为 GridRenderNormal
func (h *ManualOperationHelper) topRenderType(g *battle.GridUnit) components.GridRenderType {
	for _, t := range []components.GridRenderType{
		components.GridRenderPath,
		components.GridRenderSkillRange,
		components.GridRenderMoveRange,
		components.GridRenderInfo,
	} {
		if h.isActive(t, g) {
			return t
		}
	}
	return components.GridRenderNormal
}

func (h *ManualOperationHelper) setRenderType(g *battle.GridUnit, renderType components.GridRenderType) {
	if comp, ok := h.gridRenderer(g); ok {
		comp.RenderType = renderType
	}
}

func (h *ManualOperationHelper) gridRenderer(g *battle.GridUnit) (*components.GridCellRendererComponent, bool) {
	if g.RendererID == ecs.InvalidEntity {
		return nil, false
	}
	return ecs.GetComponent[*components.GridCellRendererComponent](h.renderer.entityManager, g.RendererID)
}
