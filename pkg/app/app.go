// Package app 提供战斗显示应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/game"
	"github.com/decker502/halfslg/pkg/scenes"
	"github.com/decker502/halfslg/pkg/utils"
)

// AppName gdata 存档目录名
const AppName = "halfslg"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// BattleID 要加载的战斗（如 "demo"），为空时使用 config.DefaultBattleID
	BattleID string
	// LayoutPath 战场布局配置，为空时使用 config.DefaultBattleLayoutPath
	LayoutPath string
	// ScenarioPath 直接指定关卡文件，优先于 BattleID
	ScenarioPath string
	// ResetProgress 清除已保存的播放进度，从头播放
	ResetProgress bool
	// AutoPlay 加载后立即开始播放
	AutoPlay bool
}

// App 是应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	progress                 *game.BattleProgressStore
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	layoutPath := cfg.LayoutPath
	if layoutPath == "" {
		layoutPath = config.DefaultBattleLayoutPath
	}
	layout, err := config.LoadBattleLayoutConfig(layoutPath)
	if err != nil {
		return nil, fmt.Errorf("布局配置加载失败: %w", err)
	}
	log.Printf("[Config] 加载战场布局: %s", layoutPath)

	if dir, err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Warning: 存储目录不可用: %v", err)
	} else if dir != "" {
		log.Printf("[App] 存储目录: %s", dir)
	}

	// gdata 不可用时降级为仅内存进度
	var gdataManager *gdata.Manager
	if m, err := gdata.Open(gdata.Config{AppName: AppName}); err != nil {
		log.Printf("[App] Warning: gdata 初始化失败: %v (进度不会持久化)", err)
	} else {
		gdataManager = m
	}
	progress := game.NewBattleProgressStore(gdataManager)

	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(battleID string) (game.Scene, error) {
		path := config.BattleScenarioPath(battleID)
		if cfg.ScenarioPath != "" {
			path = cfg.ScenarioPath
		}
		scenario, err := config.LoadBattleScenarioConfig(path)
		if err != nil {
			return nil, err
		}
		return scenes.NewBattleScene(scenes.BattleSceneConfig{
			Layout:       layout,
			Scenario:     scenario,
			Progress:     progress,
			ScreenWidth:  config.GameWindowWidth,
			ScreenHeight: config.GameWindowHeight,
			AutoPlay:     cfg.AutoPlay,
		})
	})

	battleID := cfg.BattleID
	if battleID == "" {
		battleID = config.DefaultBattleID
	}
	if cfg.ResetProgress {
		if err := progress.Clear(battleID); err != nil {
			log.Printf("[App] Warning: 清除进度失败: %v", err)
		}
	}

	log.Printf("[App] Starting battle: %s", battleID)
	if !sceneManager.LoadBattle(battleID) {
		return nil, fmt.Errorf("failed to load battle %s", battleID)
	}

	return &App{
		sceneManager: sceneManager,
		progress:     progress,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏（移动端总是全屏）
	if !utils.IsMobile() && inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 全屏时两侧填充黑色，使用线性滤波缩放
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GameWindowWidth, config.GameWindowHeight
}

// GetSceneManager 返回场景管理器
// 用于在程序关闭时保存进度
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
