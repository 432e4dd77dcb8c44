package scenes

import (
	"github.com/decker502/halfslg/pkg/game"
)

// Scene 场景接口，定义在 game 包中以便 SceneManager 使用
type Scene = game.Scene

var (
	_ Scene         = (*BattleScene)(nil)
	_ game.Saveable = (*BattleScene)(nil)
)
