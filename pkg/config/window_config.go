package config

// 游戏逻辑屏幕尺寸（像素），窗口缩放由 ebiten 处理
const (
	GameWindowWidth  = 960
	GameWindowHeight = 640
)

// 默认数据文件路径
const (
	DefaultBattleLayoutPath = "data/battle_layout.yaml"
	DefaultBattleID         = "demo"
)

// BattleScenarioPath 返回战斗配置文件路径
func BattleScenarioPath(battleID string) string {
	return "data/battles/" + battleID + ".yaml"
}
