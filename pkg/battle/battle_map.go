// Package battle 定义战场数据模型：地图、格子、战斗单位、队伍和战斗动作
//
// 本包只描述战斗数据，不涉及任何显示逻辑。
// 显示层（systems 包）通过 RendererID 把数据对象与渲染器实体关联起来。
package battle

import (
	"errors"
	"fmt"

	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/utils"
)

// ErrInvalidBattleMap 表示地图尺寸或布局参数非法
var ErrInvalidBattleMap = errors.New("invalid battle map")

// GridType 格子类型
type GridType int

const (
	GridTypeNormal   GridType = iota // 普通可通行格子
	GridTypeObstacle                 // 障碍，不可站立
)

// String 返回格子类型名称
func (t GridType) String() string {
	switch t {
	case GridTypeNormal:
		return "normal"
	case GridTypeObstacle:
		return "obstacle"
	default:
		return fmt.Sprintf("GridType(%d)", int(t))
	}
}

// GridUnit 地图上的一个格子
type GridUnit struct {
	Column int
	Row    int
	// 格子中心在网格本地坐标系中的位置
	LocalX float64
	LocalY float64

	Type       GridType
	BattleUnit *BattleUnit  // 站在格子上的战斗单位，可为 nil
	RendererID ecs.EntityID // 连接的格子渲染器，未连接时为 ecs.InvalidEntity
}

// Ref 返回格子的行列引用
func (g *GridUnit) Ref() utils.CellRef {
	return utils.CellRef{Column: g.Column, Row: g.Row}
}

// IsWalkable 格子可通行且没有被占据
func (g *GridUnit) IsWalkable() bool {
	return g.Type == GridTypeNormal && g.BattleUnit == nil
}

// ConnectRenderer 连接渲染器
func (g *GridUnit) ConnectRenderer(id ecs.EntityID) {
	g.RendererID = id
}

// DisconnectRenderer 断开渲染器
func (g *GridUnit) DisconnectRenderer() {
	g.RendererID = ecs.InvalidEntity
}

// String 便于日志输出
func (g *GridUnit) String() string {
	return fmt.Sprintf("Grid(%d,%d)", g.Column, g.Row)
}

// MapLayout 地图几何参数
type MapLayout struct {
	GridWidth      float64 // 格子中心水平间距
	GridOffsetY    float64 // 行中心垂直间距
	FirstRowOffset bool    // 偏移规则，见 utils.IsOffsetRow
}

// BattleMap 战斗地图
//
// 格子按 [column][row] 存放，被移除的格子为 nil（支持不规则地图）。
// 地图在战斗加载时创建，此后只读。
type BattleMap struct {
	Width  int // 列数
	Height int // 行数

	layout MapLayout
	grids  [][]*GridUnit
}

// NewBattleMap 创建一张填满普通格子的地图
//
// 参数：
//   - width, height: 列数、行数，必须为正
//   - layout: 几何参数，间距必须为正
//
// 返回：
//   - error: 参数非法时返回 ErrInvalidBattleMap
func NewBattleMap(width, height int, layout MapLayout) (*BattleMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidBattleMap, width, height)
	}
	if !(layout.GridWidth > 0) || !(layout.GridOffsetY > 0) {
		return nil, fmt.Errorf("%w: grid spacing (%v, %v) must be positive",
			ErrInvalidBattleMap, layout.GridWidth, layout.GridOffsetY)
	}

	m := &BattleMap{
		Width:  width,
		Height: height,
		layout: layout,
		grids:  make([][]*GridUnit, width),
	}
	for c := 0; c < width; c++ {
		m.grids[c] = make([]*GridUnit, height)
		for r := 0; r < height; r++ {
			x, y := utils.GridToLocalCoords(c, r, layout.GridWidth, layout.GridOffsetY, layout.FirstRowOffset)
			m.grids[c][r] = &GridUnit{
				Column: c,
				Row:    r,
				LocalX: x,
				LocalY: y,
				Type:   GridTypeNormal,
			}
		}
	}
	return m, nil
}

// Layout 返回地图几何参数
func (m *BattleMap) Layout() MapLayout {
	return m.layout
}

// InBounds 检查行列是否在地图范围内
func (m *BattleMap) InBounds(column, row int) bool {
	return column >= 0 && column < m.Width && row >= 0 && row < m.Height
}

// Grid 返回指定格子，越界或已移除时返回 nil
func (m *BattleMap) Grid(column, row int) *GridUnit {
	if !m.InBounds(column, row) {
		return nil
	}
	return m.grids[column][row]
}

// GridAt 按 CellRef 返回格子
func (m *BattleMap) GridAt(ref utils.CellRef) *GridUnit {
	return m.Grid(ref.Column, ref.Row)
}

// RemoveGrid 移除格子（地图空洞）
// 返回 false 表示越界、格子已不存在或格子上有战斗单位
func (m *BattleMap) RemoveGrid(column, row int) bool {
	g := m.Grid(column, row)
	if g == nil || g.BattleUnit != nil {
		return false
	}
	m.grids[column][row] = nil
	return true
}

// SetObstacle 将格子设为障碍
func (m *BattleMap) SetObstacle(column, row int) bool {
	g := m.Grid(column, row)
	if g == nil || g.BattleUnit != nil {
		return false
	}
	g.Type = GridTypeObstacle
	return true
}

// GridCount 返回存在的格子数量
func (m *BattleMap) GridCount() int {
	count := 0
	m.ForEachGrid(func(*GridUnit) { count++ })
	return count
}

// ForEachGrid 按行优先顺序遍历所有存在的格子
func (m *BattleMap) ForEachGrid(fn func(g *GridUnit)) {
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			if g := m.grids[c][r]; g != nil {
				fn(g)
			}
		}
	}
}

// HexDistance 返回两个格子的六边形步数
func (m *BattleMap) HexDistance(a, b *GridUnit) int {
	return utils.HexDistance(a.Ref(), b.Ref(), m.layout.FirstRowOffset)
}

// GridsInRange 返回以 (centerColumn, centerRow) 为中心、步数不超过 radius 的所有格子
// 中心格本身包含在内；中心格可以不存在。结果按行优先排序。
func (m *BattleMap) GridsInRange(centerColumn, centerRow, radius int) []*GridUnit {
	if radius < 0 {
		return nil
	}
	center := utils.CellRef{Column: centerColumn, Row: centerRow}
	var result []*GridUnit
	for r := centerRow - radius; r <= centerRow+radius; r++ {
		for c := centerColumn - radius - 1; c <= centerColumn+radius+1; c++ {
			g := m.Grid(c, r)
			if g == nil {
				continue
			}
			if utils.HexDistance(center, g.Ref(), m.layout.FirstRowOffset) <= radius {
				result = append(result, g)
			}
		}
	}
	return result
}

// FindPath 广度优先搜索从 from 到 to 的最短可通行路径
//
// 返回：
//   - []*GridUnit: 途经格子（含终点，不含起点），起点即终点时为空切片；
//     终点不可站立或不可达时返回 nil
func (m *BattleMap) FindPath(from, to *GridUnit) []*GridUnit {
	if from == nil || to == nil {
		return nil
	}
	if from == to {
		return []*GridUnit{}
	}
	if !to.IsWalkable() {
		return nil
	}

	prev := map[*GridUnit]*GridUnit{from: nil}
	queue := []*GridUnit{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ref := range utils.HexNeighbors(cur.Ref(), m.layout.FirstRowOffset) {
			next := m.GridAt(ref)
			if next == nil || !next.IsWalkable() {
				continue
			}
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return buildPath(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// ReachableGrids 返回从 from 出发、经过可通行格子最多 steps 步能到达的格子
// 不含起点，结果按行优先排序。与 FindPath 使用相同的通行规则，
// 因此结果中每个格子的 FindPath 路径长度都不超过 steps。
func (m *BattleMap) ReachableGrids(from *GridUnit, steps int) []*GridUnit {
	if from == nil || steps <= 0 {
		return nil
	}
	dist := map[*GridUnit]int{from: 0}
	queue := []*GridUnit{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if dist[cur] == steps {
			continue
		}
		for _, ref := range utils.HexNeighbors(cur.Ref(), m.layout.FirstRowOffset) {
			next := m.GridAt(ref)
			if next == nil || !next.IsWalkable() {
				continue
			}
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}

	var result []*GridUnit
	m.ForEachGrid(func(g *GridUnit) {
		if _, ok := dist[g]; ok && g != from {
			result = append(result, g)
		}
	})
	return result
}

func buildPath(prev map[*GridUnit]*GridUnit, from, to *GridUnit) []*GridUnit {
	var path []*GridUnit
	for g := to; g != from; g = prev[g] {
		path = append(path, g)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ========== utils.GridLayout 实现 ==========

// Columns 列数
func (m *BattleMap) Columns() int { return m.Width }

// Rows 行数
func (m *BattleMap) Rows() int { return m.Height }

// CellCenter 返回格子中心，格子已移除时 ok=false
func (m *BattleMap) CellCenter(column, row int) (x, y float64, ok bool) {
	g := m.Grid(column, row)
	if g == nil {
		return 0, 0, false
	}
	return g.LocalX, g.LocalY, true
}
