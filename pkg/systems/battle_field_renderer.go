package systems

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/game"
	"github.com/decker502/halfslg/pkg/utils"
)

// ErrRendererNotInitialized 表示战场显示器缺少必要的配置或尚未初始化
var ErrRendererNotInitialized = errors.New("battle field renderer not initialized")

// BattleFieldRendererConfig 战场显示器依赖
type BattleFieldRendererConfig struct {
	Camera   ecs.EntityID // 拥有 CameraComponent 的实体
	GridRoot ecs.EntityID // 拥有 GridRootComponent 的实体
	GridPool *RendererPool
	UnitPool *RendererPool
	Layout   *config.BattleLayoutConfig

	Views          *game.ViewManager    // 可为 nil：不做UI检测
	CommandHandler ManualCommandHandler // 可为 nil：手动指令被丢弃
	Recorder       ProgressRecorder     // 可为 nil：不记录进度
}

// NewRendererConfig 创建摄像机、网格根节点实体和两个渲染器池
//
// 参数：
//   - em: 实体管理器
//   - layout: 布局配置（摄像机初始参数、池大小）
//   - screenWidth, screenHeight: 视口尺寸
func NewRendererConfig(em *ecs.EntityManager, layout *config.BattleLayoutConfig, screenWidth, screenHeight float64) BattleFieldRendererConfig {
	camera := em.CreateEntity()
	ecs.AddComponent(em, camera, &components.CameraComponent{
		X:            layout.Camera.X,
		Y:            layout.Camera.Y,
		Zoom:         layout.Camera.Zoom,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	})

	root := em.CreateEntity()
	ecs.AddComponent(em, root, &components.GridRootComponent{})

	return BattleFieldRendererConfig{
		Camera:   camera,
		GridRoot: root,
		GridPool: NewRendererPool(em, components.RendererKindGrid, func(em *ecs.EntityManager, id ecs.EntityID) {
			ecs.AddComponent(em, id, &components.GridCellRendererComponent{})
			ecs.AddComponent(em, id, &components.PositionComponent{})
		}),
		UnitPool: NewRendererPool(em, components.RendererKindUnit, func(em *ecs.EntityManager, id ecs.EntityID) {
			ecs.AddComponent(em, id, &components.BattleUnitRendererComponent{})
			ecs.AddComponent(em, id, &components.PositionComponent{})
		}),
		Layout: layout,
	}
}

// BattleFieldRenderer 战场显示器
//
// 同时只显示一个战场。负责：
//   - 为战场上的格子、战斗单位连接池化的渲染器实体
//   - 把屏幕点击转换为格子点击，交给 ManualOperationHelper 处理
//   - 按顺序播放战斗动作
//
// 除 PlayBattle 启动的播放协程外，所有方法都只能在游戏主循环中调用。
type BattleFieldRenderer struct {
	entityManager *ecs.EntityManager
	cfg           BattleFieldRendererConfig

	helper    *ManualOperationHelper
	sequencer *PlaybackSequencer
	runner    HeroActionRunner

	field    *battle.BattleField
	resolver *utils.GridResolver

	initialized bool
}

// NewBattleFieldRenderer 创建战场显示器，使用前必须调用 Init
func NewBattleFieldRenderer(em *ecs.EntityManager, cfg BattleFieldRendererConfig) *BattleFieldRenderer {
	return &BattleFieldRenderer{
		entityManager: em,
		cfg:           cfg,
	}
}

// SetHeroActionRunner 设置英雄动作播放器（通常为 UnitAnimationSystem）
func (r *BattleFieldRenderer) SetHeroActionRunner(runner HeroActionRunner) {
	r.runner = runner
}

// Init 初始化显示器
//
// 参数：
//   - initedCallback: 初始化成功后调用，可为 nil
//
// 返回：
//   - error: 缺少摄像机、网格根节点、渲染器池或布局配置时返回 ErrRendererNotInitialized
func (r *BattleFieldRenderer) Init(initedCallback func()) error {
	if err := r.validate(); err != nil {
		log.Printf("[BattleFieldRenderer] Init battle field renderer failed: %v", err)
		return err
	}

	r.helper = NewManualOperationHelper(r, r.cfg.CommandHandler)
	r.sequencer = NewPlaybackSequencer(r.cfg.Recorder)

	log.Printf("[BattleFieldRenderer] Init battle field renderer.")

	// 预先创建渲染器，留作后面使用
	r.cfg.GridPool.Prewarm(r.cfg.Layout.GridPoolSize)
	r.cfg.UnitPool.Prewarm(r.cfg.Layout.UnitPoolSize)
	r.initialized = true

	log.Printf("[BattleFieldRenderer] Battle field renderer inited (grid pool %d, unit pool %d).",
		r.cfg.GridPool.Size(), r.cfg.UnitPool.Size())

	if initedCallback != nil {
		initedCallback()
	}
	return nil
}

func (r *BattleFieldRenderer) validate() error {
	if r.entityManager == nil {
		return fmt.Errorf("%w: entity manager is nil", ErrRendererNotInitialized)
	}
	if !ecs.HasComponent[*components.CameraComponent](r.entityManager, r.cfg.Camera) {
		return fmt.Errorf("%w: camera entity %d has no CameraComponent", ErrRendererNotInitialized, r.cfg.Camera)
	}
	if !ecs.HasComponent[*components.GridRootComponent](r.entityManager, r.cfg.GridRoot) {
		return fmt.Errorf("%w: grid root entity %d has no GridRootComponent", ErrRendererNotInitialized, r.cfg.GridRoot)
	}
	if r.cfg.GridPool == nil || r.cfg.UnitPool == nil {
		return fmt.Errorf("%w: renderer pools are missing", ErrRendererNotInitialized)
	}
	if r.cfg.Layout == nil {
		return fmt.Errorf("%w: layout config is missing", ErrRendererNotInitialized)
	}
	return nil
}

// Helper 返回手动操作Helper（Init 之前为 nil）
func (r *BattleFieldRenderer) Helper() *ManualOperationHelper {
	return r.helper
}

// Field 返回当前连接的战场
func (r *BattleFieldRenderer) Field() *battle.BattleField {
	return r.field
}

// EntityManager 返回显示器使用的实体管理器
func (r *BattleFieldRenderer) EntityManager() *ecs.EntityManager {
	return r.entityManager
}

// Config 返回显示器依赖
func (r *BattleFieldRenderer) Config() BattleFieldRendererConfig {
	return r.cfg
}

// ========== 连接 ==========

// OnConnect 连接战场：为每个格子和战斗单位连接渲染器
// 已连接其他战场时先断开
func (r *BattleFieldRenderer) OnConnect(field *battle.BattleField) error {
	if !r.initialized {
		return ErrRendererNotInitialized
	}
	if field == nil || field.BattleMap == nil {
		return fmt.Errorf("battle field has no map")
	}
	if r.field != nil {
		r.OnDisconnect()
	}

	layout := field.BattleMap.Layout()
	resolver, err := utils.NewGridResolver(field.BattleMap, utils.GridResolverConfig{
		CellWidth:          layout.GridWidth,
		RowVerticalSpacing: layout.GridOffsetY,
		FirstRowOffset:     layout.FirstRowOffset,
		HitRadius:          r.cfg.Layout.HexRadius,
	})
	if err != nil {
		return fmt.Errorf("battle %s: %w", field.BattleID, err)
	}

	r.field = field
	r.resolver = resolver
	r.refreshBattleMapGrids()
	r.refreshBattleUnits()

	log.Printf("[BattleFieldRenderer] 连接战场 %s: %d 个格子, %d 个单位",
		field.BattleID, r.cfg.GridPool.InUseCount(), r.cfg.UnitPool.InUseCount())
	return nil
}

func (r *BattleFieldRenderer) refreshBattleMapGrids() {
	r.field.BattleMap.ForEachGrid(func(g *battle.GridUnit) {
		id := r.cfg.GridPool.Acquire()
		if comp, ok := ecs.GetComponent[*components.GridCellRendererComponent](r.entityManager, id); ok {
			comp.Grid = g
			comp.RenderType = components.GridRenderNormal
		}
		r.setPosition(id, g.LocalX, g.LocalY)
		g.ConnectRenderer(id)
	})
}

func (r *BattleFieldRenderer) refreshBattleUnits() {
	for i, team := range r.field.Teams {
		for _, unit := range team.BattleUnits {
			id := r.cfg.UnitPool.Acquire()
			if comp, ok := ecs.GetComponent[*components.BattleUnitRendererComponent](r.entityManager, id); ok {
				comp.Unit = unit
				comp.TeamColor = components.TeamColorFor(i)
			}
			if unit.Grid != nil {
				r.setPosition(id, unit.Grid.LocalX, unit.Grid.LocalY)
			}
			unit.ConnectRenderer(id)
		}
	}
}

// OnDisconnect 断开战场，归还所有渲染器
func (r *BattleFieldRenderer) OnDisconnect() {
	if r.field == nil {
		return
	}
	if r.helper != nil {
		r.helper.ClickedCancel()
	}
	r.hideUnitInfo()

	for _, id := range r.cfg.GridPool.InUse() {
		if comp, ok := ecs.GetComponent[*components.GridCellRendererComponent](r.entityManager, id); ok {
			if comp.Grid != nil {
				comp.Grid.DisconnectRenderer()
			}
			comp.Grid = nil
			comp.RenderType = components.GridRenderNormal
		}
	}
	for _, id := range r.cfg.UnitPool.InUse() {
		if comp, ok := ecs.GetComponent[*components.BattleUnitRendererComponent](r.entityManager, id); ok {
			if comp.Unit != nil {
				comp.Unit.DisconnectRenderer()
			}
			comp.Unit = nil
		}
		ecs.RemoveComponent[*components.UnitMotionComponent](r.entityManager, id)
		ecs.RemoveComponent[*components.SkillCastComponent](r.entityManager, id)
		ecs.RemoveComponent[*components.FlashEffectComponent](r.entityManager, id)
	}
	r.cfg.GridPool.ReleaseAll()
	r.cfg.UnitPool.ReleaseAll()

	log.Printf("[BattleFieldRenderer] 断开战场 %s", r.field.BattleID)
	r.field = nil
	r.resolver = nil
}

func (r *BattleFieldRenderer) setPosition(id ecs.EntityID, x, y float64) {
	if pos, ok := ecs.GetComponent[*components.PositionComponent](r.entityManager, id); ok {
		pos.X, pos.Y = x, y
	}
}

// ========== 坐标变换 ==========

// CameraGeoM 世界坐标 -> 屏幕坐标
func (r *BattleFieldRenderer) CameraGeoM() ebiten.GeoM {
	var g ebiten.GeoM
	cam, ok := ecs.GetComponent[*components.CameraComponent](r.entityManager, r.cfg.Camera)
	if !ok {
		return g
	}
	g.Translate(-cam.X, -cam.Y)
	// 世界坐标 y 轴向上，屏幕 y 轴向下
	g.Scale(cam.Zoom, -cam.Zoom)
	g.Translate(cam.ScreenWidth/2, cam.ScreenHeight/2)
	return g
}

// RootGeoM 网格本地坐标 -> 世界坐标
func (r *BattleFieldRenderer) RootGeoM() ebiten.GeoM {
	var g ebiten.GeoM
	if root, ok := ecs.GetComponent[*components.GridRootComponent](r.entityManager, r.cfg.GridRoot); ok {
		g.Translate(root.X, root.Y)
	}
	return g
}

// LocalToScreenGeoM 网格本地坐标 -> 屏幕坐标
func (r *BattleFieldRenderer) LocalToScreenGeoM() ebiten.GeoM {
	g := r.RootGeoM()
	g.Concat(r.CameraGeoM())
	return g
}

// ScreenToGridLocal 屏幕坐标 -> 网格本地坐标
// 变换不可逆（摄像机缩放为 0）时 ok=false
func (r *BattleFieldRenderer) ScreenToGridLocal(screenX, screenY float64) (x, y float64, ok bool) {
	camera := r.CameraGeoM()
	if !camera.IsInvertible() {
		return 0, 0, false
	}
	camera.Invert()
	worldX, worldY := camera.Apply(screenX, screenY)

	root := r.RootGeoM()
	root.Invert()
	x, y = root.Apply(worldX, worldY)
	return x, y, true
}

// GridAtScreen 返回屏幕坐标处的格子，没有时返回 nil
func (r *BattleFieldRenderer) GridAtScreen(screenX, screenY float64) *battle.GridUnit {
	if r.field == nil || r.resolver == nil {
		return nil
	}
	x, y, ok := r.ScreenToGridLocal(screenX, screenY)
	if !ok {
		return nil
	}
	cell, ok := r.resolver.Resolve(x, y)
	if !ok {
		return nil
	}
	return r.field.BattleMap.GridAt(cell)
}

// ========== 点击 ==========

// HandleClick 处理鼠标点击
//
// 左键：点中UI时忽略；点中格子交给 ManualOperationHelper；点到地图外关闭所有弹出层。
// 右键：取消当前操作。
func (r *BattleFieldRenderer) HandleClick(button ebiten.MouseButton, screenX, screenY float64) {
	if r.field == nil || r.helper == nil {
		return
	}

	switch button {
	case ebiten.MouseButtonLeft:
		if r.cfg.Views != nil && r.cfg.Views.IsPointerOverView(screenX, screenY) {
			log.Printf("[BattleFieldRenderer] 点中了UI (%.0f, %.0f)", screenX, screenY)
			return
		}
		r.clickedBattleField(screenX, screenY)
	case ebiten.MouseButtonRight:
		r.helper.ClickedCancel()
	}
}

func (r *BattleFieldRenderer) clickedBattleField(screenX, screenY float64) {
	if g := r.GridAtScreen(screenX, screenY); g != nil {
		r.helper.OnBattleUnitAndGridTouched(g, g.BattleUnit)
		return
	}
	// 点到了地图外，关闭所有弹出层界面
	if r.cfg.Views != nil {
		r.cfg.Views.HideViews(game.ViewLayerPopup)
	}
}

// ========== 手动操作（委托给 Helper） ==========

// SetManualBattleUnit 设置手动操作的单位
func (r *BattleFieldRenderer) SetManualBattleUnit(unit *battle.BattleUnit) {
	if r.helper != nil {
		r.helper.SetManualBattleUnit(unit)
	}
}

// BattleUnitMove 单位点击了移动
func (r *BattleFieldRenderer) BattleUnitMove(unit *battle.BattleUnit) {
	if r.helper != nil {
		r.helper.BattleUnitMove(unit)
	}
}

// BattleUnitStay 单位点击了待命
func (r *BattleFieldRenderer) BattleUnitStay(unit *battle.BattleUnit) {
	if r.helper != nil {
		r.helper.BattleUnitStay(unit)
	}
}

// BattleUnitUseSkill 单位点击了使用技能
func (r *BattleFieldRenderer) BattleUnitUseSkill(unit *battle.BattleUnit, skill *battle.BattleSkill) {
	if r.helper != nil {
		r.helper.BattleUnitUseSkill(unit, skill)
	}
}

// SetCircularRangeRenderStateActive 设置圆形区域的显示状态
func (r *BattleFieldRenderer) SetCircularRangeRenderStateActive(active bool, renderType components.GridRenderType, centerColumn, centerRow, radius int) {
	if r.helper != nil {
		r.helper.SetCircularRangeRenderStateActive(active, renderType, centerColumn, centerRow, radius)
	}
}

// SetGridsRenderStateActive 设置路径显示状态
func (r *BattleFieldRenderer) SetGridsRenderStateActive(active bool, gridPath []*battle.GridUnit) {
	if r.helper != nil {
		r.helper.SetGridsRenderStateActive(active, gridPath)
	}
}

func (r *BattleFieldRenderer) showUnitInfo(unit *battle.BattleUnit) {
	if r.cfg.Views == nil {
		return
	}
	if v, ok := game.GetViewAs[*game.UnitInfoView](r.cfg.Views, game.ViewNameUnitInfo); ok {
		v.SetUnit(unit)
		v.SetVisible(true)
	}
}

func (r *BattleFieldRenderer) hideUnitInfo() {
	if r.cfg.Views != nil {
		r.cfg.Views.HideView(game.ViewNameUnitInfo)
	}
}

// ========== 播放 ==========

// PlayBattle 异步播放战斗动作
//
// 参数：
//   - ctx: 用于中断播放
//   - callback: 播放结束时在播放协程中调用，可为 nil
func (r *BattleFieldRenderer) PlayBattle(ctx context.Context, callback func(error)) *PlaybackTask {
	sequencer := r.sequencer
	if sequencer == nil {
		sequencer = NewPlaybackSequencer(nil)
	}
	if r.field == nil {
		log.Printf("[BattleFieldRenderer] Play battle action failed: no battle field")
	}
	return sequencer.Play(ctx, r.field, r.runner, callback)
}

// BattleEnd 战斗结束，通知主界面
func (r *BattleFieldRenderer) BattleEnd() {
	if r.cfg.Views == nil {
		return
	}
	if mainView, ok := game.GetViewAs[*game.MainView](r.cfg.Views, game.ViewNameMain); ok {
		mainView.ShowBattleEnd()
	}
}
