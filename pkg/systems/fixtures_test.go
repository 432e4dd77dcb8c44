package systems

import (
	"context"
	"sync"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/game"
)

// 测试视口：摄像机缩放 10，屏幕中心 (100, 50) 对准世界原点
// 网格本地 (x, y) 对应屏幕 (100+10x, 50-10y)
const (
	testScreenWidth  = 200
	testScreenHeight = 100
)

// testScreenPos 返回格子中心的屏幕坐标
func testScreenPos(g *battle.GridUnit) (float64, float64) {
	return 100 + 10*g.LocalX, 50 - 10*g.LocalY
}

func newTestLayout() *config.BattleLayoutConfig {
	layout := config.DefaultBattleLayoutConfig()
	layout.GridWidth = 1
	layout.GridOffsetY = 1
	layout.FirstRowOffset = false
	layout.HexRadius = 0.6
	layout.GridPoolSize = 10
	layout.UnitPoolSize = 2
	layout.Camera = config.CameraConfig{Zoom: 10}
	layout.Playback = config.PlaybackConfig{MoveStepSeconds: 0.1, SkillSeconds: 0.1}
	return layout
}

// newTestField 5x5 地图，英雄 #1 在 (1,1)，敌人 #2 在 (2,2)
func newTestField(t *testing.T) *battle.BattleField {
	t.Helper()
	m, err := battle.NewBattleMap(5, 5, battle.MapLayout{GridWidth: 1, GridOffsetY: 1})
	if err != nil {
		t.Fatalf("NewBattleMap() failed: %v", err)
	}
	field := battle.NewBattleField("test", m)
	field.AddTeam()
	field.AddTeam()

	hero := &battle.BattleUnit{ID: 1, Name: "hero", Mobility: 2, HP: 100, MaxHP: 100,
		Skills: []*battle.BattleSkill{{ID: "slash", Name: "Slash", ReleaseRadius: 1, Damage: 30}}}
	enemy := &battle.BattleUnit{ID: 2, Name: "enemy", Mobility: 2, HP: 80, MaxHP: 80}
	if err := field.AddBattleUnit(0, hero, 1, 1); err != nil {
		t.Fatalf("AddBattleUnit(hero) failed: %v", err)
	}
	if err := field.AddBattleUnit(1, enemy, 2, 2); err != nil {
		t.Fatalf("AddBattleUnit(enemy) failed: %v", err)
	}
	return field
}

// recordingHandler 记录手动操作指令
type recordingHandler struct {
	moves  []*battle.GridUnit
	stays  []*battle.BattleUnit
	skills []*battle.GridUnit
}

func (h *recordingHandler) OnManualMove(unit *battle.BattleUnit, target *battle.GridUnit) {
	h.moves = append(h.moves, target)
}

func (h *recordingHandler) OnManualStay(unit *battle.BattleUnit) {
	h.stays = append(h.stays, unit)
}

func (h *recordingHandler) OnManualSkill(unit *battle.BattleUnit, skill *battle.BattleSkill, target *battle.GridUnit) {
	h.skills = append(h.skills, target)
}

type testRig struct {
	em       *ecs.EntityManager
	views    *game.ViewManager
	mainView *game.MainView
	info     *game.UnitInfoView
	handler  *recordingHandler
	renderer *BattleFieldRenderer
	field    *battle.BattleField
}

// newTestRig 创建已初始化并连接战场的显示器
func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		em:       ecs.NewEntityManager(),
		views:    game.NewViewManager(),
		mainView: game.NewMainView("test", testScreenWidth),
		info:     game.NewUnitInfoView(150, 0),
		handler:  &recordingHandler{},
	}
	// 主界面放在屏幕外，避免遮挡测试点击
	rig.mainView.Y = -100
	rig.views.Register(rig.mainView)
	rig.views.Register(rig.info)

	cfg := NewRendererConfig(rig.em, newTestLayout(), testScreenWidth, testScreenHeight)
	cfg.Views = rig.views
	cfg.CommandHandler = rig.handler
	rig.renderer = NewBattleFieldRenderer(rig.em, cfg)
	if err := rig.renderer.Init(nil); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	rig.field = newTestField(t)
	if err := rig.renderer.OnConnect(rig.field); err != nil {
		t.Fatalf("OnConnect() failed: %v", err)
	}
	return rig
}

// click 左键点击格子中心
func (rig *testRig) click(column, row int) {
	x, y := testScreenPos(rig.field.BattleMap.Grid(column, row))
	rig.renderer.HandleClick(ebiten.MouseButtonLeft, x, y)
}

// fakeRunner 记录播放过的动作，可注入错误或阻塞
type fakeRunner struct {
	mu      sync.Mutex
	played  []*battle.BattleHeroAction
	failOn  int // 第 N 次调用（从 1 开始）返回 err，0 表示不失败
	err     error
	blockOn int // 第 N 次调用阻塞到 ctx 取消
	started chan struct{}
}

func (r *fakeRunner) RunHeroAction(ctx context.Context, action *battle.BattleHeroAction) error {
	r.mu.Lock()
	r.played = append(r.played, action)
	n := len(r.played)
	r.mu.Unlock()

	if n == r.blockOn {
		if r.started != nil {
			close(r.started)
		}
		<-ctx.Done()
		return ctx.Err()
	}
	if n == r.failOn {
		return r.err
	}
	return nil
}

func (r *fakeRunner) playedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.played)
}

// memoryRecorder 记录播放进度
type memoryRecorder struct {
	mu      sync.Mutex
	indices []int
}

func (r *memoryRecorder) RecordProgress(battleID string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices = append(r.indices, index)
	return nil
}

func (r *memoryRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.indices...)
}
