package components

import (
	"fmt"

	"github.com/decker502/halfslg/pkg/battle"
)

// RendererKind 渲染器种类，决定实体归属哪个对象池
type RendererKind int

const (
	RendererKindGrid RendererKind = iota // 格子渲染器
	RendererKindUnit                     // 战斗单位渲染器
)

// String 返回渲染器种类名称
func (k RendererKind) String() string {
	switch k {
	case RendererKindGrid:
		return "grid"
	case RendererKindUnit:
		return "unit"
	default:
		return fmt.Sprintf("RendererKind(%d)", int(k))
	}
}

// PoolComponent 标识实体为池化渲染器
// InUse=false 时实体处于空闲状态，可以被再次取用
type PoolComponent struct {
	Kind  RendererKind
	InUse bool
}

// GridRenderType 格子的显示状态
type GridRenderType int

const (
	GridRenderNormal     GridRenderType = iota // 普通
	GridRenderMoveRange                        // 可移动范围
	GridRenderSkillRange                       // 技能释放范围
	GridRenderPath                             // 移动路径
	GridRenderInfo                             // 信息展示（查看他人移动范围等）
)

// String 返回显示状态名称
func (t GridRenderType) String() string {
	switch t {
	case GridRenderNormal:
		return "normal"
	case GridRenderMoveRange:
		return "move-range"
	case GridRenderSkillRange:
		return "skill-range"
	case GridRenderPath:
		return "path"
	case GridRenderInfo:
		return "info"
	default:
		return fmt.Sprintf("GridRenderType(%d)", int(t))
	}
}

// GridCellRendererComponent 格子渲染器
// Grid 为 nil 表示渲染器未连接任何格子
type GridCellRendererComponent struct {
	Grid       *battle.GridUnit
	RenderType GridRenderType
}

// TeamColor 队伍颜色
type TeamColor int

const (
	TeamColorBlue TeamColor = iota // 己方（队伍 0）
	TeamColorRed                   // 其他队伍
)

// TeamColorFor 按队伍下标返回颜色
func TeamColorFor(teamIndex int) TeamColor {
	if teamIndex == 0 {
		return TeamColorBlue
	}
	return TeamColorRed
}

// BattleUnitRendererComponent 战斗单位渲染器
// Unit 为 nil 表示渲染器未连接任何单位
type BattleUnitRendererComponent struct {
	Unit      *battle.BattleUnit
	TeamColor TeamColor
}
