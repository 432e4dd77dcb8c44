package battle

import (
	"github.com/decker502/halfslg/pkg/utils"
)

// ActionType 战斗动作类型（也是编码时的类型标签）
type ActionType string

const (
	ActionTypeHero  ActionType = "hero"  // 英雄动作：移动、技能、待命
	ActionTypeRound ActionType = "round" // 回合开始标记，不需要播放
)

// BattleAction 战斗动作
// 由战斗逻辑产生，显示层按顺序播放
type BattleAction interface {
	ActionType() ActionType
}

// HeroActionKind 英雄动作的具体行为
type HeroActionKind string

const (
	HeroActionMove  HeroActionKind = "move"
	HeroActionSkill HeroActionKind = "skill"
	HeroActionStay  HeroActionKind = "stay"
)

// BattleHeroAction 一个英雄动作
type BattleHeroAction struct {
	ActionUnit *BattleUnit
	Kind       HeroActionKind

	// Move: 途经格子（含终点，不含起点）
	Path []utils.CellRef

	// Skill: 技能、目标和每个目标受到的伤害
	SkillID     string
	TargetUnits []*BattleUnit
	Damage      int
}

// ActionType 实现 BattleAction
func (a *BattleHeroAction) ActionType() ActionType { return ActionTypeHero }

// Destination 移动终点，没有路径时 ok=false
func (a *BattleHeroAction) Destination() (utils.CellRef, bool) {
	if len(a.Path) == 0 {
		return utils.CellRef{}, false
	}
	return a.Path[len(a.Path)-1], true
}

// BattleRoundAction 回合开始标记
type BattleRoundAction struct {
	Round int
}

// ActionType 实现 BattleAction
func (a *BattleRoundAction) ActionType() ActionType { return ActionTypeRound }

// MsgBattleAction 一场战斗的完整动作序列
// 列表中允许出现 nil（播放时跳过）
type MsgBattleAction struct {
	BattleActions []BattleAction
}

// Len 返回动作数量
func (m *MsgBattleAction) Len() int {
	if m == nil {
		return 0
	}
	return len(m.BattleActions)
}
