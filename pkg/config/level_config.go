package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/utils"
)

// BattleScenarioConfig 战斗关卡配置
// 定义地图、双方队伍以及战斗逻辑产生的动作脚本
type BattleScenarioConfig struct {
	ID          string          `yaml:"id"`          // 战斗ID，如 "demo"，同时作为存档键
	Name        string          `yaml:"name"`        // 关卡名称
	Description string          `yaml:"description"` // 关卡描述（可选）
	Map         MapConfig       `yaml:"map"`
	Teams       []TeamConfig    `yaml:"teams"`
	Actions     []*ActionConfig `yaml:"actions"` // 允许 "~" 空条目，播放时跳过
}

// MapConfig 地图配置
type MapConfig struct {
	Width     int      `yaml:"width"`     // 列数
	Height    int      `yaml:"height"`    // 行数
	Removed   [][2]int `yaml:"removed"`   // 被移除的格子 [column, row]
	Obstacles [][2]int `yaml:"obstacles"` // 障碍格子 [column, row]
}

// TeamConfig 队伍配置
type TeamConfig struct {
	Units []UnitConfig `yaml:"units"`
}

// UnitConfig 战斗单位配置
type UnitConfig struct {
	ID       int           `yaml:"id"`
	Name     string        `yaml:"name"`
	Mobility int           `yaml:"mobility"` // 默认 3
	HP       int           `yaml:"hp"`       // 默认 100
	Position [2]int        `yaml:"position"` // [column, row]
	Skills   []SkillConfig `yaml:"skills"`
}

// SkillConfig 技能配置
type SkillConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	ReleaseRadius int    `yaml:"releaseRadius"` // 默认 1
	Damage        int    `yaml:"damage"`
}

// ActionConfig 脚本动作
type ActionConfig struct {
	Type    string   `yaml:"type"`    // "hero" 或 "round"
	Unit    int      `yaml:"unit"`    // 行动单位ID
	Kind    string   `yaml:"kind"`    // "move", "skill", "stay"
	Path    [][2]int `yaml:"path"`    // 移动路径（不含起点）
	Skill   string   `yaml:"skill"`   // 技能ID
	Targets []int    `yaml:"targets"` // 目标单位ID
	Damage  int      `yaml:"damage"`  // 每个目标受到的伤害
	Round   int      `yaml:"round"`
}

// LoadBattleScenarioConfig 从YAML文件加载战斗关卡配置
//
// 参数：
//   - path: 关卡配置文件路径
//
// 返回：
//   - error: 读取、解析或验证失败时返回错误
func LoadBattleScenarioConfig(path string) (*BattleScenarioConfig, error) {
	data, err := readDataFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read battle config file %s: %w", path, err)
	}
	cfg, err := ParseBattleScenarioConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseBattleScenarioConfig 解析YAML数据（用于嵌入资源）
func ParseBattleScenarioConfig(data []byte) (*BattleScenarioConfig, error) {
	var cfg BattleScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse battle config YAML: %w", err)
	}

	applyScenarioDefaults(&cfg)

	if err := validateBattleScenario(&cfg); err != nil {
		return nil, fmt.Errorf("invalid battle config: %w", err)
	}
	return &cfg, nil
}

// applyScenarioDefaults 为缺失的可选字段设置默认值
func applyScenarioDefaults(cfg *BattleScenarioConfig) {
	for ti := range cfg.Teams {
		for ui := range cfg.Teams[ti].Units {
			u := &cfg.Teams[ti].Units[ui]
			if u.Mobility == 0 {
				u.Mobility = 3
			}
			if u.HP == 0 {
				u.HP = 100
			}
			if u.Name == "" {
				u.Name = fmt.Sprintf("unit%d", u.ID)
			}
			for si := range u.Skills {
				if u.Skills[si].ReleaseRadius == 0 {
					u.Skills[si].ReleaseRadius = 1
				}
			}
		}
	}
}

// validateBattleScenario 验证关卡配置的完整性
// 单位ID和站位的合法性在 BuildBattleField 中随地图一起检查
func validateBattleScenario(cfg *BattleScenarioConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("battle ID is required")
	}
	if cfg.Map.Width <= 0 || cfg.Map.Height <= 0 {
		return fmt.Errorf("map size %dx%d must be positive", cfg.Map.Width, cfg.Map.Height)
	}
	if len(cfg.Teams) == 0 {
		return fmt.Errorf("at least one team is required")
	}

	for i, a := range cfg.Actions {
		if a == nil {
			continue
		}
		switch battle.ActionType(a.Type) {
		case battle.ActionTypeRound:
		case battle.ActionTypeHero:
			switch battle.HeroActionKind(a.Kind) {
			case battle.HeroActionMove:
				if len(a.Path) == 0 {
					return fmt.Errorf("action %d: move requires a path", i)
				}
			case battle.HeroActionSkill:
				if a.Skill == "" {
					return fmt.Errorf("action %d: skill id is required", i)
				}
			case battle.HeroActionStay:
			default:
				return fmt.Errorf("action %d: unknown hero action kind %q", i, a.Kind)
			}
		default:
			return fmt.Errorf("action %d: %w: %q", i, battle.ErrUnknownActionType, a.Type)
		}
	}
	return nil
}

// BuildBattleField 按配置创建战场
//
// 参数：
//   - layout: 地图几何参数来源
//
// 返回：
//   - *battle.BattleField: 地图、队伍和动作序列都已就绪的战场
//   - error: 单位站位非法或动作引用了不存在的单位时返回错误
func (cfg *BattleScenarioConfig) BuildBattleField(layout *BattleLayoutConfig) (*battle.BattleField, error) {
	battleMap, err := battle.NewBattleMap(cfg.Map.Width, cfg.Map.Height, battle.MapLayout{
		GridWidth:      layout.GridWidth,
		GridOffsetY:    layout.GridOffsetY,
		FirstRowOffset: layout.FirstRowOffset,
	})
	if err != nil {
		return nil, err
	}

	for _, c := range cfg.Map.Removed {
		if !battleMap.RemoveGrid(c[0], c[1]) {
			return nil, fmt.Errorf("cannot remove grid (%d,%d)", c[0], c[1])
		}
	}
	for _, c := range cfg.Map.Obstacles {
		if !battleMap.SetObstacle(c[0], c[1]) {
			return nil, fmt.Errorf("cannot place obstacle at (%d,%d)", c[0], c[1])
		}
	}

	field := battle.NewBattleField(cfg.ID, battleMap)
	for ti, team := range cfg.Teams {
		field.AddTeam()
		for _, u := range team.Units {
			unit := &battle.BattleUnit{
				ID:       u.ID,
				Name:     u.Name,
				Mobility: u.Mobility,
				HP:       u.HP,
				MaxHP:    u.HP,
			}
			for _, s := range u.Skills {
				unit.Skills = append(unit.Skills, &battle.BattleSkill{
					ID:            s.ID,
					Name:          s.Name,
					ReleaseRadius: s.ReleaseRadius,
					Damage:        s.Damage,
				})
			}
			if err := field.AddBattleUnit(ti, unit, u.Position[0], u.Position[1]); err != nil {
				return nil, fmt.Errorf("team %d: %w", ti, err)
			}
		}
	}

	msg, err := cfg.buildActions(field)
	if err != nil {
		return nil, err
	}
	field.MsgAction = msg
	return field, nil
}

// buildActions 将脚本动作关联到战场单位
func (cfg *BattleScenarioConfig) buildActions(field *battle.BattleField) (*battle.MsgBattleAction, error) {
	msg := &battle.MsgBattleAction{BattleActions: make([]battle.BattleAction, 0, len(cfg.Actions))}
	for i, a := range cfg.Actions {
		if a == nil {
			msg.BattleActions = append(msg.BattleActions, nil)
			continue
		}
		if battle.ActionType(a.Type) == battle.ActionTypeRound {
			msg.BattleActions = append(msg.BattleActions, &battle.BattleRoundAction{Round: a.Round})
			continue
		}

		unit := field.BattleUnit(a.Unit)
		if unit == nil {
			return nil, fmt.Errorf("action %d: %w: %d", i, battle.ErrUnknownBattleUnit, a.Unit)
		}
		action := &battle.BattleHeroAction{
			ActionUnit: unit,
			Kind:       battle.HeroActionKind(a.Kind),
			SkillID:    a.Skill,
			Damage:     a.Damage,
		}
		for _, p := range a.Path {
			action.Path = append(action.Path, utils.CellRef{Column: p[0], Row: p[1]})
		}
		for _, id := range a.Targets {
			target := field.BattleUnit(id)
			if target == nil {
				return nil, fmt.Errorf("action %d: %w: target %d", i, battle.ErrUnknownBattleUnit, id)
			}
			action.TargetUnits = append(action.TargetUnits, target)
		}
		msg.BattleActions = append(msg.BattleActions, action)
	}
	return msg, nil
}
