package systems

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/utils"
)

func runAsync(anim *UnitAnimationSystem, ctx context.Context, action *battle.BattleHeroAction) <-chan error {
	result := make(chan error, 1)
	go func() { result <- anim.RunHeroAction(ctx, action) }()
	return result
}

// pumpUntilPlaying 在主循环中轮询，直到动作开始播放
func pumpUntilPlaying(t *testing.T, anim *UnitAnimationSystem) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !anim.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("action was not picked up")
		}
		anim.Update(0)
		time.Sleep(time.Millisecond)
	}
}

// pumpUntilResult 在主循环中轮询，直到动作结束
func pumpUntilResult(t *testing.T, anim *UnitAnimationSystem, result <-chan error, dt float64) error {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case err := <-result:
			return err
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("action did not finish")
		}
		anim.Update(dt)
		time.Sleep(time.Millisecond)
	}
}

func assertPosition(t *testing.T, em *ecs.EntityManager, id ecs.EntityID, x, y float64) {
	t.Helper()
	pos, ok := ecs.GetComponent[*components.PositionComponent](em, id)
	if !ok {
		t.Fatalf("entity %d has no position", id)
	}
	if math.Abs(pos.X-x) > 1e-9 || math.Abs(pos.Y-y) > 1e-9 {
		t.Errorf("position = (%v,%v), want (%v,%v)", pos.X, pos.Y, x, y)
	}
}

// TestUnitAnimationMove 测试沿路径插值移动并在结束后更新站位
func TestUnitAnimationMove(t *testing.T) {
	rig := newTestRig(t)
	hero := rig.field.BattleUnit(1)
	anim := NewUnitAnimationSystem(rig.em, rig.renderer, newTestLayout().Playback)

	result := runAsync(anim, context.Background(), &battle.BattleHeroAction{
		ActionUnit: hero,
		Kind:       battle.HeroActionMove,
		Path:       []utils.CellRef{{Column: 2, Row: 1}, {Column: 3, Row: 1}},
	})
	pumpUntilPlaying(t, anim)

	if got := len(rig.renderer.Helper().ActiveGrids(components.GridRenderPath)); got != 2 {
		t.Errorf("path highlight = %d grids, want 2", got)
	}

	anim.Update(0.05)
	assertPosition(t, rig.em, hero.RendererID, 2.0, -1)
	if hero.Grid.Ref() != (utils.CellRef{Column: 1, Row: 1}) {
		t.Error("data should not change before the animation ends")
	}

	anim.Update(0.1)
	assertPosition(t, rig.em, hero.RendererID, 3.0, -1)

	anim.Update(0.1)
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("RunHeroAction() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("move did not finish")
	}

	assertPosition(t, rig.em, hero.RendererID, 3.5, -1)
	if hero.Grid.Ref() != (utils.CellRef{Column: 3, Row: 1}) {
		t.Errorf("hero grid = %s, want (3,1)", hero.Grid)
	}
	if anim.IsPlaying() {
		t.Error("IsPlaying() should be false after finishing")
	}
	if ecs.HasComponent[*components.UnitMotionComponent](rig.em, hero.RendererID) {
		t.Error("motion component should be removed")
	}
	if len(rig.renderer.Helper().ActiveGrids(components.GridRenderPath)) != 0 {
		t.Error("path highlight should be cleared")
	}
}

// TestUnitAnimationSkill 测试技能结算伤害并触发受击闪白
func TestUnitAnimationSkill(t *testing.T) {
	rig := newTestRig(t)
	hero, enemy := rig.field.BattleUnit(1), rig.field.BattleUnit(2)
	anim := NewUnitAnimationSystem(rig.em, rig.renderer, newTestLayout().Playback)

	result := runAsync(anim, context.Background(), &battle.BattleHeroAction{
		ActionUnit:  hero,
		Kind:        battle.HeroActionSkill,
		SkillID:     "slash",
		TargetUnits: []*battle.BattleUnit{enemy},
		Damage:      30,
	})
	pumpUntilPlaying(t, anim)

	if !ecs.HasComponent[*components.SkillCastComponent](rig.em, hero.RendererID) {
		t.Fatal("caster should have a skill cast component")
	}
	if enemy.HP != 80 {
		t.Error("damage should be applied after the cast")
	}

	if err := pumpUntilResult(t, anim, result, 0.05); err != nil {
		t.Fatalf("RunHeroAction() = %v", err)
	}
	if enemy.HP != 50 {
		t.Errorf("enemy HP = %d, want 50", enemy.HP)
	}
	flash, ok := ecs.GetComponent[*components.FlashEffectComponent](rig.em, enemy.RendererID)
	if !ok || !flash.IsActive {
		t.Error("target should flash")
	}
	if ecs.HasComponent[*components.SkillCastComponent](rig.em, hero.RendererID) {
		t.Error("skill cast component should be removed")
	}
}

// TestUnitAnimationImmediate 测试无需动画即可完成的动作
func TestUnitAnimationImmediate(t *testing.T) {
	tests := []struct {
		name    string
		action  func(f *battle.BattleField) *battle.BattleHeroAction
		wantErr error
	}{
		{
			name: "stay",
			action: func(f *battle.BattleField) *battle.BattleHeroAction {
				return &battle.BattleHeroAction{ActionUnit: f.BattleUnit(1), Kind: battle.HeroActionStay}
			},
		},
		{
			name: "empty path",
			action: func(f *battle.BattleField) *battle.BattleHeroAction {
				return &battle.BattleHeroAction{ActionUnit: f.BattleUnit(1), Kind: battle.HeroActionMove}
			},
		},
		{
			name: "unknown kind",
			action: func(f *battle.BattleField) *battle.BattleHeroAction {
				return &battle.BattleHeroAction{ActionUnit: f.BattleUnit(1), Kind: "dance"}
			},
			wantErr: battle.ErrUnknownActionType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(t)
			anim := NewUnitAnimationSystem(rig.em, rig.renderer, newTestLayout().Playback)

			result := runAsync(anim, context.Background(), tt.action(rig.field))
			err := pumpUntilResult(t, anim, result, 0)
			if tt.wantErr == nil && err != nil {
				t.Errorf("RunHeroAction() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("RunHeroAction() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestUnitAnimationWithoutRenderer 测试未连接渲染器的单位直接跳过
func TestUnitAnimationWithoutRenderer(t *testing.T) {
	rig := newTestRig(t)
	field := rig.field
	hero := field.BattleUnit(1)
	rig.renderer.OnDisconnect()

	anim := NewUnitAnimationSystem(rig.em, rig.renderer, newTestLayout().Playback)
	result := runAsync(anim, context.Background(), &battle.BattleHeroAction{
		ActionUnit: hero,
		Kind:       battle.HeroActionMove,
		Path:       []utils.CellRef{{Column: 2, Row: 1}},
	})
	if err := pumpUntilResult(t, anim, result, 0.05); err != nil {
		t.Errorf("RunHeroAction() = %v, want nil", err)
	}
	if hero.Grid.Ref() != (utils.CellRef{Column: 1, Row: 1}) {
		t.Error("skipped action should not move the unit")
	}
}

// TestUnitAnimationCancel 测试取消时单位回到数据上的格子
func TestUnitAnimationCancel(t *testing.T) {
	rig := newTestRig(t)
	hero := rig.field.BattleUnit(1)
	anim := NewUnitAnimationSystem(rig.em, rig.renderer, newTestLayout().Playback)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := runAsync(anim, ctx, &battle.BattleHeroAction{
		ActionUnit: hero,
		Kind:       battle.HeroActionMove,
		Path:       []utils.CellRef{{Column: 2, Row: 1}},
	})
	pumpUntilPlaying(t, anim)
	anim.Update(0.05)

	cancel()
	if err := <-result; !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeroAction() = %v, want context.Canceled", err)
	}

	anim.Update(0.05)
	if anim.IsPlaying() {
		t.Error("cancelled action should be aborted on the next update")
	}
	assertPosition(t, rig.em, hero.RendererID, hero.Grid.LocalX, hero.Grid.LocalY)
	if hero.Grid.Ref() != (utils.CellRef{Column: 1, Row: 1}) {
		t.Errorf("hero grid = %s, want (1,1)", hero.Grid)
	}
	if ecs.HasComponent[*components.UnitMotionComponent](rig.em, hero.RendererID) {
		t.Error("motion component should be removed")
	}
	if len(rig.renderer.Helper().ActiveGrids(components.GridRenderPath)) != 0 {
		t.Error("path highlight should be cleared")
	}

	// 已取消的 ctx 不会提交动作
	if err := anim.RunHeroAction(ctx, &battle.BattleHeroAction{ActionUnit: hero, Kind: battle.HeroActionStay}); !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeroAction(cancelled) = %v, want context.Canceled", err)
	}
}
