package config

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ErrInvalidBattleLayout 表示战场布局配置非法
var ErrInvalidBattleLayout = errors.New("invalid battle layout")

// 战场布局默认值
// 坐标使用"网格本地坐标系"：原点为 (0,0) 格子中心，x 向右，行号增大时 y 减小
const (
	// DefaultGridWidth 格子中心水平间距
	DefaultGridWidth = 1.28

	// DefaultGridOffsetY 行中心垂直间距
	DefaultGridOffsetY = 1.1

	// DefaultGridPoolSize 格子渲染器池预热数量
	DefaultGridPoolSize = 100

	// DefaultUnitPoolSize 战斗单位渲染器池预热数量
	DefaultUnitPoolSize = 10

	// DefaultCameraZoom 每个本地单位对应的像素数
	DefaultCameraZoom = 48.0

	// DefaultMoveStepSeconds 移动一格的动画时长
	DefaultMoveStepSeconds = 0.2

	// DefaultSkillSeconds 技能动画时长
	DefaultSkillSeconds = 0.5
)

// BattleLayoutConfig 战场布局配置
// 对应 data/battle_layout.yaml
type BattleLayoutConfig struct {
	GridWidth      float64 `yaml:"gridWidth"`      // 格子中心水平间距，默认 1.28
	GridOffsetY    float64 `yaml:"gridOffsetY"`    // 行中心垂直间距，默认 1.1
	FirstRowOffset bool    `yaml:"firstRowOffset"` // false: 奇数行右移半格；true: 偶数行右移半格
	HexRadius      float64 `yaml:"hexRadius"`      // 点击命中半径，默认 gridWidth/√3

	GridPoolSize int `yaml:"gridPoolSize"` // 默认 100
	UnitPoolSize int `yaml:"unitPoolSize"` // 默认 10

	Camera   CameraConfig   `yaml:"camera"`
	Playback PlaybackConfig `yaml:"playback"`
}

// CameraConfig 摄像机初始参数
type CameraConfig struct {
	Zoom float64 `yaml:"zoom"` // 像素/本地单位
	X    float64 `yaml:"x"`    // 屏幕中心对准的世界坐标
	Y    float64 `yaml:"y"`
}

// PlaybackConfig 动作播放速度
type PlaybackConfig struct {
	MoveStepSeconds float64 `yaml:"moveStepSeconds"`
	SkillSeconds    float64 `yaml:"skillSeconds"`
}

// LoadBattleLayoutConfig 从YAML文件加载战场布局配置
//
// 参数：
//   - path: 配置文件路径
//
// 返回：
//   - error: 读取、解析失败或参数非法（ErrInvalidBattleLayout）时返回错误
func LoadBattleLayoutConfig(path string) (*BattleLayoutConfig, error) {
	data, err := readDataFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read battle layout file %s: %w", path, err)
	}
	cfg, err := ParseBattleLayoutConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseBattleLayoutConfig 解析YAML数据（用于嵌入资源）
func ParseBattleLayoutConfig(data []byte) (*BattleLayoutConfig, error) {
	var cfg BattleLayoutConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse battle layout YAML: %w", err)
	}

	applyLayoutDefaults(&cfg)

	if err := validateBattleLayout(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultBattleLayoutConfig 返回全部使用默认值的配置
func DefaultBattleLayoutConfig() *BattleLayoutConfig {
	cfg := &BattleLayoutConfig{}
	applyLayoutDefaults(cfg)
	return cfg
}

// applyLayoutDefaults 为缺失的可选字段设置默认值
func applyLayoutDefaults(cfg *BattleLayoutConfig) {
	if cfg.GridWidth == 0 {
		cfg.GridWidth = DefaultGridWidth
	}
	if cfg.GridOffsetY == 0 {
		cfg.GridOffsetY = DefaultGridOffsetY
	}
	// 正六边形外接圆半径
	if cfg.HexRadius == 0 {
		cfg.HexRadius = cfg.GridWidth / math.Sqrt(3)
	}
	if cfg.GridPoolSize == 0 {
		cfg.GridPoolSize = DefaultGridPoolSize
	}
	if cfg.UnitPoolSize == 0 {
		cfg.UnitPoolSize = DefaultUnitPoolSize
	}
	if cfg.Camera.Zoom == 0 {
		cfg.Camera.Zoom = DefaultCameraZoom
	}
	if cfg.Playback.MoveStepSeconds == 0 {
		cfg.Playback.MoveStepSeconds = DefaultMoveStepSeconds
	}
	if cfg.Playback.SkillSeconds == 0 {
		cfg.Playback.SkillSeconds = DefaultSkillSeconds
	}
}

// validateBattleLayout 验证布局参数
// NaN 通过 !(v > 0) 一并拒绝
func validateBattleLayout(cfg *BattleLayoutConfig) error {
	if !(cfg.GridWidth > 0) {
		return fmt.Errorf("%w: gridWidth must be positive, got %v", ErrInvalidBattleLayout, cfg.GridWidth)
	}
	if !(cfg.GridOffsetY > 0) {
		return fmt.Errorf("%w: gridOffsetY must be positive, got %v", ErrInvalidBattleLayout, cfg.GridOffsetY)
	}
	if !(cfg.HexRadius > 0) {
		return fmt.Errorf("%w: hexRadius must be positive, got %v", ErrInvalidBattleLayout, cfg.HexRadius)
	}
	if cfg.GridPoolSize < 0 || cfg.UnitPoolSize < 0 {
		return fmt.Errorf("%w: pool sizes cannot be negative", ErrInvalidBattleLayout)
	}
	if !(cfg.Camera.Zoom > 0) {
		return fmt.Errorf("%w: camera zoom must be positive, got %v", ErrInvalidBattleLayout, cfg.Camera.Zoom)
	}
	if !(cfg.Playback.MoveStepSeconds > 0) || !(cfg.Playback.SkillSeconds > 0) {
		return fmt.Errorf("%w: playback durations must be positive", ErrInvalidBattleLayout)
	}
	return nil
}
