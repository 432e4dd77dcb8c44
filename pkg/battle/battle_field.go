package battle

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownBattleUnit 表示按ID找不到战斗单位
var ErrUnknownBattleUnit = errors.New("unknown battle unit")

// BattleField 一场战斗的全部数据
//
// 地图、队伍在加载后只在游戏主循环中修改；
// 动作播放进度 currentIndex 可能被播放协程写入，因此加锁访问。
type BattleField struct {
	BattleID  string
	BattleMap *BattleMap
	Teams     []*BattleTeam
	MsgAction *MsgBattleAction

	mu           sync.Mutex
	currentIndex int
}

// NewBattleField 创建战场
func NewBattleField(battleID string, battleMap *BattleMap) *BattleField {
	return &BattleField{
		BattleID:  battleID,
		BattleMap: battleMap,
	}
}

// AddTeam 添加一支空队伍并返回
func (f *BattleField) AddTeam() *BattleTeam {
	team := &BattleTeam{ID: len(f.Teams)}
	f.Teams = append(f.Teams, team)
	return team
}

// AddBattleUnit 将战斗单位加入队伍并放到指定格子
//
// 返回：
//   - error: 队伍不存在、ID重复或格子不可站立时返回错误
func (f *BattleField) AddBattleUnit(teamIndex int, unit *BattleUnit, column, row int) error {
	if teamIndex < 0 || teamIndex >= len(f.Teams) {
		return fmt.Errorf("team %d does not exist", teamIndex)
	}
	if f.BattleUnit(unit.ID) != nil {
		return fmt.Errorf("duplicate battle unit id %d", unit.ID)
	}
	g := f.BattleMap.Grid(column, row)
	if g == nil {
		return fmt.Errorf("unit %s: grid (%d,%d) does not exist", unit, column, row)
	}
	if err := unit.EnterGrid(g); err != nil {
		return err
	}
	unit.TeamIndex = teamIndex
	team := f.Teams[teamIndex]
	team.BattleUnits = append(team.BattleUnits, unit)
	return nil
}

// BattleUnit 按ID查找战斗单位，没有时返回 nil
func (f *BattleField) BattleUnit(id int) *BattleUnit {
	for _, team := range f.Teams {
		for _, u := range team.BattleUnits {
			if u.ID == id {
				return u
			}
		}
	}
	return nil
}

// BattleUnits 按队伍顺序返回所有战斗单位
func (f *BattleField) BattleUnits() []*BattleUnit {
	var units []*BattleUnit
	for _, team := range f.Teams {
		units = append(units, team.BattleUnits...)
	}
	return units
}

// CurrentIndex 返回下一个待播放动作的下标
func (f *BattleField) CurrentIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentIndex
}

// SetCurrentIndex 设置播放进度（用于从存档恢复）
func (f *BattleField) SetCurrentIndex(index int) {
	if index < 0 {
		index = 0
	}
	f.mu.Lock()
	f.currentIndex = index
	f.mu.Unlock()
}

// AdvanceIndex 播放进度加一，返回新的下标
func (f *BattleField) AdvanceIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentIndex++
	return f.currentIndex
}

// FastForward 不播放动画，直接把前 index 个动作的结果应用到战场数据上，并把进度设为 index
//
// 用于从存档恢复：移动动作把单位放到终点，技能动作对每个目标扣血，
// 回合标记、待命和 nil 动作跳过。
//
// 返回：
//   - error: 移动终点不存在或不可站立时返回错误，此时进度停在出错的动作
func (f *BattleField) FastForward(index int) error {
	n := index
	if n > f.MsgAction.Len() {
		n = f.MsgAction.Len()
	}
	for i := 0; i < n; i++ {
		hero, ok := f.MsgAction.BattleActions[i].(*BattleHeroAction)
		if !ok || hero == nil || hero.ActionUnit == nil {
			continue
		}
		switch hero.Kind {
		case HeroActionMove:
			ref, ok := hero.Destination()
			if !ok {
				continue
			}
			if err := hero.ActionUnit.EnterGrid(f.BattleMap.GridAt(ref)); err != nil {
				f.SetCurrentIndex(i)
				return fmt.Errorf("action %d: %w", i, err)
			}
		case HeroActionSkill:
			for _, target := range hero.TargetUnits {
				target.TakeDamage(hero.Damage)
			}
		}
	}
	f.SetCurrentIndex(index)
	return nil
}
