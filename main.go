package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/halfslg/pkg/app"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/embedded"
)

func main() {
	verbose := flag.Bool("verbose", false, "启用详细日志输出")
	battleID := flag.String("battle", config.DefaultBattleID, "要加载的战斗ID（data/battles/<id>.yaml）")
	layoutPath := flag.String("layout", "", "战场布局配置文件，默认使用嵌入的 "+config.DefaultBattleLayoutPath)
	scenarioPath := flag.String("scenario", "", "直接指定关卡配置文件，优先于 --battle")
	reset := flag.Bool("reset", false, "清除已保存的播放进度")
	autoPlay := flag.Bool("play", false, "加载后立即播放动作脚本")
	flag.Parse()

	embedded.Init(dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:       *verbose,
		BattleID:      *battleID,
		LayoutPath:    *layoutPath,
		ScenarioPath:  *scenarioPath,
		ResetProgress: *reset,
		AutoPlay:      *autoPlay,
	})
	if err != nil {
		// NewApp 可能已关闭日志输出，错误直接写到 stderr
		log.SetOutput(os.Stderr)
		log.Fatalf("初始化失败: %v", err)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle("Half SLG - Battle Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(gameApp)

	if !gameApp.GetSceneManager().SaveCurrentScene() {
		log.Printf("[Main] Warning: 退出时保存进度失败")
	}
	if runErr != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(runErr)
	}
}
