package systems

import (
	"context"
	"fmt"
	"log"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/utils"
)

// heroJob 一个等待游戏主循环播放的英雄动作
type heroJob struct {
	ctx    context.Context
	action *battle.BattleHeroAction
	done   chan error // 缓冲为 1，主循环写入后不会阻塞

	renderer ecs.EntityID
	path     []*battle.GridUnit
}

// UnitAnimationSystem 战斗单位动画系统
//
// 实现 HeroActionRunner：播放协程通过 RunHeroAction 把动作交给主循环，
// 主循环在 Update 中推进动画，动画结束后把结果写回战场数据（站位、生命值）。
// 同一时间只播放一个动作。
type UnitAnimationSystem struct {
	entityManager *ecs.EntityManager
	renderer      *BattleFieldRenderer
	playback      config.PlaybackConfig

	jobs    chan *heroJob
	current *heroJob
}

// NewUnitAnimationSystem 创建动画系统
func NewUnitAnimationSystem(em *ecs.EntityManager, renderer *BattleFieldRenderer, playback config.PlaybackConfig) *UnitAnimationSystem {
	return &UnitAnimationSystem{
		entityManager: em,
		renderer:      renderer,
		playback:      playback,
		jobs:          make(chan *heroJob),
	}
}

// RunHeroAction 播放英雄动作，阻塞直到动画结束或 ctx 取消
// 可在任意协程调用，但不能在游戏主循环中调用（会阻塞 Update）
func (s *UnitAnimationSystem) RunHeroAction(ctx context.Context, action *battle.BattleHeroAction) error {
	job := &heroJob{ctx: ctx, action: action, done: make(chan error, 1)}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPlaying 是否有动作正在播放
func (s *UnitAnimationSystem) IsPlaying() bool {
	return s.current != nil
}

// Update 推进动画，必须在游戏主循环中调用
func (s *UnitAnimationSystem) Update(dt float64) {
	if s.current == nil {
		select {
		case job := <-s.jobs:
			s.start(job)
		default:
		}
	}
	if s.current != nil {
		s.advance(dt)
	}
}

func (s *UnitAnimationSystem) start(job *heroJob) {
	s.current = job
	if err := job.ctx.Err(); err != nil {
		s.finish(err)
		return
	}

	unit := job.action.ActionUnit
	if unit == nil || !unit.HasRenderer() {
		// 没有连接渲染器的单位不播放
		s.finish(nil)
		return
	}
	job.renderer = unit.RendererID

	switch job.action.Kind {
	case battle.HeroActionMove:
		s.startMove(job)
	case battle.HeroActionSkill:
		ecs.AddComponent(s.entityManager, job.renderer, &components.SkillCastComponent{
			SkillID:  job.action.SkillID,
			Duration: s.playback.SkillSeconds,
		})
	case battle.HeroActionStay:
		s.finish(nil)
	default:
		s.finish(fmt.Errorf("%w: hero action kind %q", battle.ErrUnknownActionType, job.action.Kind))
	}
}

func (s *UnitAnimationSystem) startMove(job *heroJob) {
	field := s.renderer.Field()
	if field == nil {
		s.finish(ErrRendererNotInitialized)
		return
	}
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, job.renderer)
	if !ok {
		s.finish(fmt.Errorf("unit %s: renderer has no position", job.action.ActionUnit))
		return
	}
	if len(job.action.Path) == 0 {
		s.finish(nil)
		return
	}

	waypoints := []components.Waypoint{{X: pos.X, Y: pos.Y}}
	for _, ref := range job.action.Path {
		g := field.BattleMap.GridAt(ref)
		if g == nil {
			s.finish(fmt.Errorf("unit %s: path grid %s does not exist", job.action.ActionUnit, ref))
			return
		}
		job.path = append(job.path, g)
		waypoints = append(waypoints, components.Waypoint{X: g.LocalX, Y: g.LocalY})
	}

	ecs.AddComponent(s.entityManager, job.renderer, &components.UnitMotionComponent{
		Waypoints:    waypoints,
		StepDuration: s.playback.MoveStepSeconds,
	})
	s.renderer.SetGridsRenderStateActive(true, job.path)
}

func (s *UnitAnimationSystem) advance(dt float64) {
	job := s.current
	if err := job.ctx.Err(); err != nil {
		s.abort(err)
		return
	}

	if motion, ok := ecs.GetComponent[*components.UnitMotionComponent](s.entityManager, job.renderer); ok {
		s.advanceMotion(motion, dt)
		if !motion.IsFinished {
			return
		}
		ecs.RemoveComponent[*components.UnitMotionComponent](s.entityManager, job.renderer)
		s.renderer.SetGridsRenderStateActive(false, nil)
		s.finish(s.applyMove(job))
		return
	}

	if cast, ok := ecs.GetComponent[*components.SkillCastComponent](s.entityManager, job.renderer); ok {
		cast.Elapsed += dt
		if cast.Elapsed < cast.Duration {
			return
		}
		ecs.RemoveComponent[*components.SkillCastComponent](s.entityManager, job.renderer)
		s.applySkill(job)
		s.finish(nil)
		return
	}

	// 渲染器在播放途中被断开
	s.finish(nil)
}

func (s *UnitAnimationSystem) advanceMotion(motion *components.UnitMotionComponent, dt float64) {
	pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, s.current.renderer)
	if !ok {
		motion.IsFinished = true
		return
	}

	segments := len(motion.Waypoints) - 1
	motion.Elapsed += dt
	for motion.Elapsed >= motion.StepDuration && motion.Segment < segments {
		motion.Elapsed -= motion.StepDuration
		motion.Segment++
	}

	if motion.Segment >= segments {
		last := motion.Waypoints[segments]
		pos.X, pos.Y = last.X, last.Y
		motion.IsFinished = true
		return
	}

	from, to := motion.Waypoints[motion.Segment], motion.Waypoints[motion.Segment+1]
	t := motion.Elapsed / motion.StepDuration
	pos.X = utils.Lerp(from.X, to.X, t)
	pos.Y = utils.Lerp(from.Y, to.Y, t)
}

// applyMove 把单位移动到终点格子
func (s *UnitAnimationSystem) applyMove(job *heroJob) error {
	dest := job.path[len(job.path)-1]
	if err := job.action.ActionUnit.EnterGrid(dest); err != nil {
		s.snapToGrid(job)
		return err
	}
	return nil
}

// applySkill 结算技能伤害，被命中的单位闪白
func (s *UnitAnimationSystem) applySkill(job *heroJob) {
	for _, target := range job.action.TargetUnits {
		taken := target.TakeDamage(job.action.Damage)
		log.Printf("[UnitAnimationSystem] %s 使用 %s 对 %s 造成 %d 伤害 (HP %d/%d)",
			job.action.ActionUnit, job.action.SkillID, target, taken, target.HP, target.MaxHP)
		if target.HasRenderer() {
			ecs.AddComponent(s.entityManager, target.RendererID, &components.FlashEffectComponent{
				Duration:  0.3,
				Intensity: 1.0,
				IsActive:  true,
			})
		}
	}
}

// abort 中断当前动作，单位回到数据上的格子
func (s *UnitAnimationSystem) abort(err error) {
	job := s.current
	ecs.RemoveComponent[*components.UnitMotionComponent](s.entityManager, job.renderer)
	ecs.RemoveComponent[*components.SkillCastComponent](s.entityManager, job.renderer)
	if len(job.path) > 0 {
		s.renderer.SetGridsRenderStateActive(false, nil)
	}
	s.snapToGrid(job)
	s.finish(err)
}

func (s *UnitAnimationSystem) snapToGrid(job *heroJob) {
	unit := job.action.ActionUnit
	if unit == nil || unit.Grid == nil || job.renderer == ecs.InvalidEntity {
		return
	}
	if pos, ok := ecs.GetComponent[*components.PositionComponent](s.entityManager, job.renderer); ok {
		pos.X, pos.Y = unit.Grid.LocalX, unit.Grid.LocalY
	}
}

func (s *UnitAnimationSystem) finish(err error) {
	s.current.done <- err
	s.current = nil
}
