package scenes

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/game"
	"github.com/decker502/halfslg/pkg/systems"
	"github.com/decker502/halfslg/pkg/utils"
)

const (
	// UnitInfoX, UnitInfoY 单位信息弹窗位置
	UnitInfoX = 10
	UnitInfoY = 34

	battleHint = "P:play  Esc:stop  Tab:select  M:move  K:skill  S:stay  RMB:cancel"

	// saveWaitTimeout 退出保存前等待播放协程停止的最长时间
	saveWaitTimeout = 500 * time.Millisecond
)

var backgroundColor = color.RGBA{20, 28, 20, 255}

// BattleSceneConfig 战斗场景参数
type BattleSceneConfig struct {
	Layout   *config.BattleLayoutConfig
	Scenario *config.BattleScenarioConfig

	// Progress 播放进度存储，可为 nil（不记录进度）
	Progress *game.BattleProgressStore

	ScreenWidth, ScreenHeight float64

	// AutoPlay 创建后立即开始播放
	AutoPlay bool
}

// BattleScene 战斗场景
//
// 负责把输入、ECS 系统和战场显示器接到游戏主循环上：
//   - 鼠标点击交给 BattleFieldRenderer
//   - 每帧推进单位动画和受击闪白
//   - 动作脚本在播放协程中运行，结束时回到主循环通知主界面
type BattleScene struct {
	entityManager *ecs.EntityManager
	views         *game.ViewManager
	mainView      *game.MainView

	renderer     *systems.BattleFieldRenderer
	anim         *systems.UnitAnimationSystem
	flash        *systems.FlashEffectSystem
	renderSystem *systems.RenderSystem

	field    *battle.BattleField
	progress *game.BattleProgressStore

	// 播放协程
	playCancel   context.CancelFunc
	playTask     *systems.PlaybackTask
	playbackDone chan error

	// 手动操作协程
	manualCtx    context.Context
	manualCancel context.CancelFunc
	manualDone   chan error
	manualBusy   bool

	clicks []utils.PointerClick
}

// NewBattleScene 创建战斗场景
//
// 动作脚本先经 ActionCodec 编码再解码后挂到战场上，与从战斗逻辑接收消息的流程一致。
// 有保存的进度时从该进度继续播放。
//
// 返回：
//   - error: 配置非法、战场构建失败或显示器初始化失败时返回错误
func NewBattleScene(cfg BattleSceneConfig) (*BattleScene, error) {
	if cfg.Layout == nil || cfg.Scenario == nil {
		return nil, fmt.Errorf("battle scene requires layout and scenario")
	}

	field, err := cfg.Scenario.BuildBattleField(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to build battle %s: %w", cfg.Scenario.ID, err)
	}
	if err := receiveActions(field); err != nil {
		return nil, err
	}

	if cfg.Progress != nil {
		field, err = resumeField(cfg, field)
		if err != nil {
			return nil, err
		}
	}

	s := &BattleScene{
		entityManager: ecs.NewEntityManager(),
		views:         game.NewViewManager(),
		field:         field,
		progress:      cfg.Progress,
		playbackDone:  make(chan error, 1),
		manualDone:    make(chan error, 1),
	}
	s.manualCtx, s.manualCancel = context.WithCancel(context.Background())

	s.mainView = game.NewMainView(cfg.Scenario.Name, cfg.ScreenWidth)
	s.mainView.Hint = battleHint
	s.views.Register(s.mainView)
	s.views.Register(game.NewUnitInfoView(UnitInfoX, UnitInfoY))

	rendererCfg := systems.NewRendererConfig(s.entityManager, cfg.Layout, cfg.ScreenWidth, cfg.ScreenHeight)
	rendererCfg.Views = s.views
	rendererCfg.CommandHandler = s
	if cfg.Progress != nil {
		rendererCfg.Recorder = cfg.Progress
	}
	s.renderer = systems.NewBattleFieldRenderer(s.entityManager, rendererCfg)
	if err := s.renderer.Init(func() {
		log.Printf("[BattleScene] 显示器初始化完成")
	}); err != nil {
		return nil, err
	}
	if err := s.renderer.OnConnect(field); err != nil {
		return nil, err
	}

	s.anim = systems.NewUnitAnimationSystem(s.entityManager, s.renderer, cfg.Layout.Playback)
	s.renderer.SetHeroActionRunner(s.anim)
	s.flash = systems.NewFlashEffectSystem(s.entityManager)
	s.renderSystem = systems.NewRenderSystem(s.entityManager, s.renderer)

	s.selectNextManualUnit()

	if cfg.AutoPlay {
		s.StartPlayback()
	}
	log.Printf("[BattleScene] 战斗 %s 已加载，从第 %d 个动作开始", field.BattleID, field.CurrentIndex())
	return s, nil
}

// receiveActions 以编码消息的形式接收动作序列
func receiveActions(field *battle.BattleField) error {
	codec := battle.NewActionCodec()
	data, err := codec.Encode(field.BattleID, field.MsgAction)
	if err != nil {
		return fmt.Errorf("failed to encode battle actions: %w", err)
	}
	msg, err := codec.Decode(data, field)
	if err != nil {
		return fmt.Errorf("failed to decode battle actions: %w", err)
	}
	field.MsgAction = msg
	log.Printf("[BattleScene] 收到 %d 个战斗动作 (%d bytes)", msg.Len(), len(data))
	return nil
}

// resumeField 把已播放的动作应用到战场上，使单位位置和生命值与存档进度一致
// 进度无法应用时重建战场，从头播放
func resumeField(cfg BattleSceneConfig, field *battle.BattleField) (*battle.BattleField, error) {
	index, err := cfg.Progress.Load(field.BattleID)
	if err != nil {
		log.Printf("[BattleScene] Warning: 读取进度失败: %v (从头播放)", err)
	}
	if index <= 0 {
		return field, nil
	}
	ffErr := field.FastForward(index)
	if ffErr == nil {
		return field, nil
	}
	log.Printf("[BattleScene] Warning: 进度 %d 无法应用: %v (从头播放)", index, ffErr)

	field, err = cfg.Scenario.BuildBattleField(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to build battle %s: %w", cfg.Scenario.ID, err)
	}
	if err := receiveActions(field); err != nil {
		return nil, err
	}
	return field, nil
}

// Field 返回战场数据
func (s *BattleScene) Field() *battle.BattleField {
	return s.field
}

// Renderer 返回战场显示器
func (s *BattleScene) Renderer() *systems.BattleFieldRenderer {
	return s.renderer
}

// MainView 返回主界面
func (s *BattleScene) MainView() *game.MainView {
	return s.mainView
}

// IsPlaying 是否正在播放动作脚本
func (s *BattleScene) IsPlaying() bool {
	return s.playCancel != nil
}

// StartPlayback 开始播放动作脚本，已在播放或手动操作未完成时忽略
func (s *BattleScene) StartPlayback() {
	if s.IsPlaying() || s.manualBusy {
		return
	}
	s.renderer.Helper().ClickedCancel()

	ctx, cancel := context.WithCancel(context.Background())
	s.playCancel = cancel
	s.playTask = s.renderer.PlayBattle(ctx, func(err error) {
		// 在播放协程中调用，交回主循环处理
		s.playbackDone <- err
	})
}

// StopPlayback 停止播放，当前动作被中断，进度停在该动作
func (s *BattleScene) StopPlayback() {
	if s.playCancel != nil {
		s.playCancel()
	}
}

// Update 更新场景
func (s *BattleScene) Update(deltaTime float64) {
	s.handleInput()
	s.step(deltaTime)
}

// step 推进动画并处理协程结果，不读取输入
func (s *BattleScene) step(deltaTime float64) {
	s.anim.Update(deltaTime)
	s.flash.Update(deltaTime)

	select {
	case err := <-s.playbackDone:
		s.onPlaybackFinished(err)
	default:
	}

	select {
	case err := <-s.manualDone:
		s.manualBusy = false
		if err != nil {
			log.Printf("[BattleScene] 手动操作失败: %v", err)
		}
	default:
	}
}

func (s *BattleScene) onPlaybackFinished(err error) {
	s.playCancel()
	s.playCancel = nil
	s.playTask = nil

	switch {
	case err == nil, errors.Is(err, systems.ErrNoBattleActions):
		s.renderer.BattleEnd()
	case errors.Is(err, context.Canceled):
		log.Printf("[BattleScene] 播放已停止于第 %d 个动作", s.field.CurrentIndex())
	default:
		log.Printf("[BattleScene] 播放出错: %v", err)
	}
}

func (s *BattleScene) handleInput() {
	s.clicks = utils.AppendJustClicked(s.clicks[:0])
	for _, c := range s.clicks {
		s.renderer.HandleClick(c.Button, float64(c.X), float64(c.Y))
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		s.StartPlayback()
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		s.StopPlayback()
	}

	// 播放期间不接受手动操作
	if s.IsPlaying() || s.manualBusy {
		return
	}
	unit := s.renderer.Helper().ManualBattleUnit()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		s.selectNextManualUnit()
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		s.renderer.BattleUnitMove(unit)
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		if unit != nil && len(unit.Skills) > 0 {
			s.renderer.BattleUnitUseSkill(unit, unit.Skills[0])
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		s.renderer.BattleUnitStay(unit)
	}
}

// selectNextManualUnit 在己方（队伍 0）存活单位中轮换手动操作的单位
func (s *BattleScene) selectNextManualUnit() {
	if len(s.field.Teams) == 0 {
		return
	}
	var alive []*battle.BattleUnit
	for _, u := range s.field.Teams[0].BattleUnits {
		if !u.IsDead() && u.Grid != nil {
			alive = append(alive, u)
		}
	}
	if len(alive) == 0 {
		s.renderer.SetManualBattleUnit(nil)
		return
	}

	next := alive[0]
	current := s.renderer.Helper().ManualBattleUnit()
	for i, u := range alive {
		if u == current {
			next = alive[(i+1)%len(alive)]
			break
		}
	}
	s.renderer.SetManualBattleUnit(next)
	log.Printf("[BattleScene] 手动操作单位: %s", next)
}

// ========== systems.ManualCommandHandler ==========

// OnManualMove 沿最短路径移动到目标格子，路径长度不能超过单位的移动力
func (s *BattleScene) OnManualMove(unit *battle.BattleUnit, target *battle.GridUnit) {
	path := s.field.BattleMap.FindPath(unit.Grid, target)
	if len(path) == 0 {
		log.Printf("[BattleScene] %s 无法到达 %s", unit, target)
		return
	}
	if len(path) > unit.Mobility {
		log.Printf("[BattleScene] %s 到 %s 需要 %d 步，超出移动力 %d", unit, target, len(path), unit.Mobility)
		return
	}
	action := &battle.BattleHeroAction{ActionUnit: unit, Kind: battle.HeroActionMove}
	for _, g := range path {
		action.Path = append(action.Path, g.Ref())
	}
	s.runManual(action)
}

// OnManualStay 待命
func (s *BattleScene) OnManualStay(unit *battle.BattleUnit) {
	s.runManual(&battle.BattleHeroAction{ActionUnit: unit, Kind: battle.HeroActionStay})
}

// OnManualSkill 对目标格子上的单位释放技能
func (s *BattleScene) OnManualSkill(unit *battle.BattleUnit, skill *battle.BattleSkill, target *battle.GridUnit) {
	action := &battle.BattleHeroAction{
		ActionUnit: unit,
		Kind:       battle.HeroActionSkill,
		SkillID:    skill.ID,
		Damage:     skill.Damage,
	}
	if target.BattleUnit != nil && target.BattleUnit != unit {
		action.TargetUnits = []*battle.BattleUnit{target.BattleUnit}
	}
	s.runManual(action)
}

// runManual 在协程中播放手动动作，结果在 step 中处理
func (s *BattleScene) runManual(action *battle.BattleHeroAction) {
	if s.manualBusy {
		log.Printf("[BattleScene] 上一个手动操作尚未完成")
		return
	}
	s.manualBusy = true
	go func() {
		s.manualDone <- s.anim.RunHeroAction(s.manualCtx, action)
	}()
}

// ========== game.Saveable ==========

// SaveOnExit 停止播放并保存进度
//
// 先等待播放协程退出，避免它随后写入的进度覆盖这里保存的进度。
func (s *BattleScene) SaveOnExit() bool {
	s.StopPlayback()
	s.manualCancel()
	if s.playTask != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveWaitTimeout)
		err := s.playTask.Wait(ctx)
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[BattleScene] Warning: 等待播放停止超时")
		}
	}
	if s.progress == nil {
		return true
	}
	if err := s.progress.Save(s.field.BattleID, s.field.CurrentIndex()); err != nil {
		log.Printf("[BattleScene] 保存进度失败: %v", err)
		return false
	}
	return true
}

// Draw 绘制场景
func (s *BattleScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	s.renderSystem.Draw(screen)
	s.views.Draw(screen)
}
