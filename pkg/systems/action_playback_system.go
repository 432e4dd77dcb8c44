package systems

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/decker502/halfslg/pkg/battle"
)

// ErrNoBattleActions 表示战场没有可播放的动作
var ErrNoBattleActions = errors.New("no battle actions to play")

// HeroActionRunner 播放单个英雄动作，阻塞直到动作播放完成
//
// 实现方需要在动作单位没有连接渲染器时直接返回 nil（跳过该动作）。
type HeroActionRunner interface {
	RunHeroAction(ctx context.Context, action *battle.BattleHeroAction) error
}

// ProgressRecorder 记录播放进度
// index 为下一个待播放动作的下标，会在播放协程中调用
type ProgressRecorder interface {
	RecordProgress(battleID string, index int) error
}

// PlaybackTask 一次播放任务
type PlaybackTask struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newPlaybackTask() *PlaybackTask {
	return &PlaybackTask{done: make(chan struct{})}
}

// Done 播放结束时关闭
func (t *PlaybackTask) Done() <-chan struct{} {
	return t.done
}

// Err 返回播放结果，未结束或成功时为 nil
func (t *PlaybackTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait 等待播放结束
// ctx 先结束时返回 ctx.Err()，播放本身不受影响
func (t *PlaybackTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *PlaybackTask) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// PlaybackSequencer 按顺序播放战场上的动作序列
//
// 每次 Play 启动一个协程，从 field.CurrentIndex() 开始逐个播放，
// 每完成一个动作推进一次进度。进度只在 BattleField 内加锁修改，
// 因此中断后再次 Play 会从中断处继续。
type PlaybackSequencer struct {
	recorder ProgressRecorder
}

// NewPlaybackSequencer 创建播放器
//
// 参数：
//   - recorder: 进度记录器，可为 nil
func NewPlaybackSequencer(recorder ProgressRecorder) *PlaybackSequencer {
	return &PlaybackSequencer{recorder: recorder}
}

// Play 开始播放
//
// 参数：
//   - ctx: 取消后播放在当前动作结束后停止
//   - field: 战场数据
//   - runner: 英雄动作播放器
//   - callback: 播放结束时在播放协程中调用，参数为最终错误（成功时为 nil），可为 nil
//
// 返回：
//   - *PlaybackTask: 用于等待播放结束
func (s *PlaybackSequencer) Play(ctx context.Context, field *battle.BattleField, runner HeroActionRunner, callback func(error)) *PlaybackTask {
	task := newPlaybackTask()

	go func() {
		err := s.run(ctx, field, runner)
		if err != nil {
			log.Printf("[PlaybackSequencer] 播放结束: %v", err)
		} else {
			log.Printf("[PlaybackSequencer] 播放完成: %s", field.BattleID)
		}
		task.finish(err)
		if callback != nil {
			callback(err)
		}
	}()

	return task
}

func (s *PlaybackSequencer) run(ctx context.Context, field *battle.BattleField, runner HeroActionRunner) error {
	if field == nil || field.MsgAction.Len() == 0 {
		return ErrNoBattleActions
	}
	if runner == nil {
		return fmt.Errorf("battle %s: hero action runner is nil", field.BattleID)
	}

	log.Printf("[PlaybackSequencer] 开始播放 %s，从第 %d 个动作开始，共 %d 个",
		field.BattleID, field.CurrentIndex(), field.MsgAction.Len())

	actions := field.MsgAction.BattleActions
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := field.CurrentIndex()
		if index >= len(actions) {
			return nil
		}

		switch action := actions[index].(type) {
		case nil:
			log.Printf("[PlaybackSequencer] 动作为空，跳过 index=%d", index)
		case *battle.BattleHeroAction:
			if action == nil || action.ActionUnit == nil {
				log.Printf("[PlaybackSequencer] 英雄动作缺少单位，跳过 index=%d", index)
				break
			}
			if err := runner.RunHeroAction(ctx, action); err != nil {
				return fmt.Errorf("battle %s action %d: %w", field.BattleID, index, err)
			}
		default:
			// 回合标记等不需要播放
		}

		next := field.AdvanceIndex()
		if s.recorder != nil {
			if err := s.recorder.RecordProgress(field.BattleID, next); err != nil {
				log.Printf("[PlaybackSequencer] 保存进度失败: %v", err)
			}
		}
	}
}
