// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PointerClick 本帧新发生的一次点击
// 统一鼠标和触摸输入，触摸按下映射为鼠标按键
type PointerClick struct {
	Button ebiten.MouseButton
	X, Y   int
	Touch  bool
}

// AppendJustClicked 追加本帧新发生的点击
//
// 鼠标左键、右键各产生一次点击。
// 单指触摸视为左键；第二根手指按下时视为右键（取消操作），位置取第一根手指。
//
// 参数：
//   - clicks: 追加目标，可为 nil
func AppendJustClicked(clicks []PointerClick) []PointerClick {
	pressed := inpututil.AppendJustPressedTouchIDs(nil)
	if len(pressed) > 0 {
		active := ebiten.AppendTouchIDs(nil)
		if len(active) == 0 {
			active = pressed
		}
		x, y := ebiten.TouchPosition(active[0])
		clicks = append(clicks, PointerClick{
			Button: touchButton(len(active)),
			X:      x,
			Y:      y,
			Touch:  true,
		})
	}

	for _, button := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonRight} {
		if inpututil.IsMouseButtonJustPressed(button) {
			x, y := ebiten.CursorPosition()
			clicks = append(clicks, PointerClick{Button: button, X: x, Y: y})
		}
	}
	return clicks
}

// touchButton 按当前按下的手指数决定映射的按键
func touchButton(activeTouches int) ebiten.MouseButton {
	if activeTouches >= 2 {
		return ebiten.MouseButtonRight
	}
	return ebiten.MouseButtonLeft
}
