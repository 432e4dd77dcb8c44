package utils

// 交错网格（offset 坐标）工具函数
// 网格本地坐标系：原点为 (0,0) 格子中心，x 向右，行号增大时 y 减小

// GridToLocalCoords 将格子行列转换为网格本地坐标系下的中心点
// 参数:
//   - col, row: 格子列、行
//   - cellWidth: 格子中心水平间距
//   - rowSpacing: 行中心垂直间距
//   - firstRowOffset: 偏移规则，见 IsOffsetRow
//
// 返回:
//   - x, y: 格子中心的本地坐标
func GridToLocalCoords(col, row int, cellWidth, rowSpacing float64, firstRowOffset bool) (x, y float64) {
	x = float64(col) * cellWidth
	if IsOffsetRow(row, firstRowOffset) {
		x += cellWidth * 0.5
	}
	y = -float64(row) * rowSpacing
	return x, y
}

// OffsetToCube 将 offset 坐标转换为立方体坐标 (q, r, s)，q+r+s=0
//
// 偏移行整体右移半格：firstRowOffset=false 对应 "odd-r"，true 对应 "even-r"。
func OffsetToCube(col, row int, firstRowOffset bool) (q, r, s int) {
	var shift int
	if firstRowOffset {
		shift = (row + (row & 1)) / 2
	} else {
		shift = (row - (row & 1)) / 2
	}
	q = col - shift
	r = row
	s = -q - r
	return q, r, s
}

// HexDistance 返回两个格子之间的六边形步数
func HexDistance(a, b CellRef, firstRowOffset bool) int {
	aq, ar, as := OffsetToCube(a.Column, a.Row, firstRowOffset)
	bq, br, bs := OffsetToCube(b.Column, b.Row, firstRowOffset)
	return maxInt(absInt(aq-bq), maxInt(absInt(ar-br), absInt(as-bs)))
}

// HexNeighbors 返回六个相邻格子（不做越界检查）
func HexNeighbors(c CellRef, firstRowOffset bool) []CellRef {
	// 偏移行的斜向邻居在右侧，非偏移行在左侧
	left := 0
	if !IsOffsetRow(c.Row, firstRowOffset) {
		left = -1
	}
	return []CellRef{
		{Column: c.Column - 1, Row: c.Row},
		{Column: c.Column + 1, Row: c.Row},
		{Column: c.Column + left, Row: c.Row - 1},
		{Column: c.Column + left + 1, Row: c.Row - 1},
		{Column: c.Column + left, Row: c.Row + 1},
		{Column: c.Column + left + 1, Row: c.Row + 1},
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
