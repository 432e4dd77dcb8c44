package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene 一个场景（目前只有战斗场景）
// Update 和 Draw 都在游戏主循环中调用
type Scene interface {
	// Update 推进场景逻辑，deltaTime 为距上一帧的秒数
	Update(deltaTime float64)

	// Draw 绘制场景
	Draw(screen *ebiten.Image)
}

// Saveable 可选接口：场景在程序退出时保存状态
type Saveable interface {
	// SaveOnExit 保存状态
	// 返回 false 表示保存失败（程序仍会正常退出）
	SaveOnExit() bool
}
