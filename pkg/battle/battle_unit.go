package battle

import (
	"fmt"

	"github.com/decker502/halfslg/pkg/ecs"
)

// BattleSkill 战斗技能
type BattleSkill struct {
	ID            string
	Name          string
	ReleaseRadius int // 释放距离（六边形步数）
	Damage        int
}

// BattleUnit 战斗单位
type BattleUnit struct {
	ID        int
	Name      string
	TeamIndex int // 所属队伍在 BattleField.Teams 中的下标
	Mobility  int // 每回合可移动步数
	HP        int
	MaxHP     int
	Skills    []*BattleSkill

	Grid       *GridUnit    // 当前所在格子
	RendererID ecs.EntityID // 连接的战斗单位渲染器
}

// String 便于日志输出
func (u *BattleUnit) String() string {
	return fmt.Sprintf("%s#%d", u.Name, u.ID)
}

// IsDead 生命值耗尽
func (u *BattleUnit) IsDead() bool {
	return u.HP <= 0
}

// TakeDamage 扣除生命值，不低于 0
// 返回实际扣除量
func (u *BattleUnit) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > u.HP {
		amount = u.HP
	}
	u.HP -= amount
	return amount
}

// Skill 按ID查找技能，没有时返回 nil
func (u *BattleUnit) Skill(id string) *BattleSkill {
	for _, s := range u.Skills {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// EnterGrid 移动到目标格子，离开原来的格子
// 目标格子不可通行时返回错误
func (u *BattleUnit) EnterGrid(g *GridUnit) error {
	if g == nil {
		return fmt.Errorf("unit %s: target grid is nil", u)
	}
	if g == u.Grid {
		return nil
	}
	if !g.IsWalkable() {
		return fmt.Errorf("unit %s: %s is not walkable", u, g)
	}
	u.LeaveGrid()
	g.BattleUnit = u
	u.Grid = g
	return nil
}

// LeaveGrid 离开当前格子
func (u *BattleUnit) LeaveGrid() {
	if u.Grid != nil && u.Grid.BattleUnit == u {
		u.Grid.BattleUnit = nil
	}
	u.Grid = nil
}

// ConnectRenderer 连接渲染器
func (u *BattleUnit) ConnectRenderer(id ecs.EntityID) {
	u.RendererID = id
}

// DisconnectRenderer 断开渲染器
func (u *BattleUnit) DisconnectRenderer() {
	u.RendererID = ecs.InvalidEntity
}

// HasRenderer 是否已连接渲染器
func (u *BattleUnit) HasRenderer() bool {
	return u.RendererID != ecs.InvalidEntity
}

// BattleTeam 战斗队伍
type BattleTeam struct {
	ID          int
	BattleUnits []*BattleUnit
}
