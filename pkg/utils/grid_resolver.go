package utils

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrInvalidGridLayout 表示网格布局参数非法（间距或点击半径 <= 0）
// 在构造 GridResolver 时立即返回，不会延迟到 Resolve 阶段
var ErrInvalidGridLayout = errors.New("invalid grid layout")

// CellRef 标识一个格子（列, 行）
type CellRef struct {
	Column int
	Row    int
}

// String 返回 "(col,row)" 形式，便于日志输出
func (c CellRef) String() string {
	return fmt.Sprintf("(%d,%d)", c.Column, c.Row)
}

// GridLayout 是 GridResolver 读取的只读网格视图
//
// 坐标均为网格本地坐标系（已去除摄像机与场景节点变换）。
// CellCenter 对空格子（稀疏地图）返回 ok=false。
type GridLayout interface {
	Columns() int
	Rows() int
	CellCenter(column, row int) (x, y float64, ok bool)
}

// GridResolverConfig 交错网格的几何参数
type GridResolverConfig struct {
	CellWidth          float64 // 相邻格子中心的水平间距
	RowVerticalSpacing float64 // 相邻行中心的垂直间距
	FirstRowOffset     bool    // true: 偶数行右移半格；false: 奇数行右移半格
	HitRadius          float64 // 点击点到格子中心的最大距离（不含）
}

// GridResolver 将网格本地坐标点映射到最近的有效格子
//
// 先用公式求出近似行列，再在 3x3 邻域内按中心距离精确判定，
// 距离必须严格小于 HitRadius，否则视为点在格子间的空隙或地图外。
// GridResolver 不持有可变状态，可在任意 goroutine 中并发调用。
type GridResolver struct {
	layout GridLayout
	cfg    GridResolverConfig
}

// NewGridResolver 创建网格解析器
//
// 参数：
//   - layout: 网格布局（尺寸、格子存在性、格子中心）
//   - cfg: 几何参数
//
// 返回：
//   - error: layout 为 nil（包括装在接口里的 nil 指针）或任一间距/半径 <= 0 时返回 ErrInvalidGridLayout
func NewGridResolver(layout GridLayout, cfg GridResolverConfig) (*GridResolver, error) {
	if isNilLayout(layout) {
		return nil, fmt.Errorf("%w: layout is nil", ErrInvalidGridLayout)
	}
	if !(cfg.CellWidth > 0) {
		return nil, fmt.Errorf("%w: cell width must be positive, got %v", ErrInvalidGridLayout, cfg.CellWidth)
	}
	if !(cfg.RowVerticalSpacing > 0) {
		return nil, fmt.Errorf("%w: row vertical spacing must be positive, got %v", ErrInvalidGridLayout, cfg.RowVerticalSpacing)
	}
	if !(cfg.HitRadius > 0) {
		return nil, fmt.Errorf("%w: hit radius must be positive, got %v", ErrInvalidGridLayout, cfg.HitRadius)
	}
	return &GridResolver{layout: layout, cfg: cfg}, nil
}

// isNilLayout 判断接口本身为 nil 或其中的指针为 nil，如 (*battle.BattleMap)(nil)
func isNilLayout(layout GridLayout) bool {
	if layout == nil {
		return true
	}
	v := reflect.ValueOf(layout)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Config 返回解析器使用的几何参数
func (r *GridResolver) Config() GridResolverConfig {
	return r.cfg
}

// ApproximateCell 用公式计算近似行列（可能越界，也可能偏差一格）
//
// 行号随 y 减小而增大（屏幕式自上而下布局）。
func (r *GridResolver) ApproximateCell(x, y float64) (column, row int) {
	spacing := r.cfg.RowVerticalSpacing
	width := r.cfg.CellWidth

	row = int(math.Floor((y - spacing*0.5) / -spacing))

	rowOffset := width * 0.5
	if row&1 == offsetFlagBit(r.cfg.FirstRowOffset) {
		rowOffset = 0
	}
	column = int(math.Floor((x + width*0.5 - rowOffset) / width))
	return column, row
}

// Resolve 返回点所在的格子
//
// 返回：
//   - CellRef: 命中的格子
//   - bool: false 表示点在地图外或离所有格子中心都太远（正常结果，不是错误）
//
// 等距时保留扫描顺序中的第一个（行号小者优先，其次列号小者）。
func (r *GridResolver) Resolve(x, y float64) (CellRef, bool) {
	if !isFinite(x) || !isFinite(y) {
		return CellRef{}, false
	}

	column, row := r.ApproximateCell(x, y)
	columns := r.layout.Columns()
	rows := r.layout.Rows()

	best := CellRef{}
	found := false
	minDis := math.Inf(1)
	for dr := -1; dr <= 1; dr++ {
		testRow := row + dr
		if testRow < 0 || testRow >= rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			testColumn := column + dc
			if testColumn < 0 || testColumn >= columns {
				continue
			}
			cx, cy, ok := r.layout.CellCenter(testColumn, testRow)
			if !ok {
				continue
			}
			distance := math.Hypot(x-cx, y-cy)
			if distance < minDis && distance < r.cfg.HitRadius {
				minDis = distance
				best = CellRef{Column: testColumn, Row: testRow}
				found = true
			}
		}
	}
	return best, found
}

// offsetFlagBit 将 FirstRowOffset 转成与 row&1 比较的位
func offsetFlagBit(firstRowOffset bool) int {
	if firstRowOffset {
		return 1
	}
	return 0
}

// IsOffsetRow 判断该行是否相对网格原点右移半格
// 与 ApproximateCell 的公式互逆
func IsOffsetRow(row int, firstRowOffset bool) bool {
	return row&1 != offsetFlagBit(firstRowOffset)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
