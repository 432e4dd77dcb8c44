package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 存储路径常量：每场战斗一个属性
const battleProgressObject = "battle_progress"

// BattleProgress 一场战斗的播放进度
type BattleProgress struct {
	BattleID    string    `yaml:"battleId"`
	ActionIndex int       `yaml:"actionIndex"` // 下一个待播放动作的下标
	UpdatedAt   time.Time `yaml:"updatedAt"`
}

// BattleProgressStore 战斗播放进度存储
//
// 进度保存在内存中，并在 gdataManager 可用时以 YAML 写入 gdata。
// 播放协程会调用 RecordProgress，因此所有方法都加锁。
type BattleProgressStore struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，仅内存）

	mu      sync.Mutex
	records map[string]BattleProgress
}

// NewBattleProgressStore 创建进度存储
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存进度）
func NewBattleProgressStore(gdataManager *gdata.Manager) *BattleProgressStore {
	return &BattleProgressStore{
		gdataManager: gdataManager,
		records:      make(map[string]BattleProgress),
	}
}

// Save 保存进度
//
// 参数：
//   - battleID: 战斗ID
//   - index: 下一个待播放动作的下标
//
// 返回：
//   - error: 参数无效、序列化或写入 gdata 失败时返回错误（内存中的进度仍会更新）
func (s *BattleProgressStore) Save(battleID string, index int) error {
	if battleID == "" {
		return fmt.Errorf("battle id is empty")
	}
	if index < 0 {
		return fmt.Errorf("battle %s: negative action index %d", battleID, index)
	}

	record := BattleProgress{BattleID: battleID, ActionIndex: index, UpdatedAt: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[battleID] = record

	if s.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to marshal battle progress: %w", err)
	}
	if err := s.gdataManager.SaveObjectProp(battleProgressObject, battleID, data); err != nil {
		return fmt.Errorf("failed to save battle progress %s: %w", battleID, err)
	}
	return nil
}

// RecordProgress 播放过程中记录进度
func (s *BattleProgressStore) RecordProgress(battleID string, index int) error {
	return s.Save(battleID, index)
}

// Load 读取进度
//
// 返回：
//   - int: 下一个待播放动作的下标，没有记录时为 0
//   - error: gdata 中的记录无法读取或解析时返回错误
func (s *BattleProgressStore) Load(battleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[battleID]; ok {
		return record.ActionIndex, nil
	}
	if s.gdataManager == nil || battleID == "" {
		return 0, nil
	}
	if !s.gdataManager.ObjectPropExists(battleProgressObject, battleID) {
		return 0, nil
	}

	data, err := s.gdataManager.LoadObjectProp(battleProgressObject, battleID)
	if err != nil {
		return 0, fmt.Errorf("failed to load battle progress %s: %w", battleID, err)
	}
	var record BattleProgress
	if err := yaml.Unmarshal(data, &record); err != nil {
		return 0, fmt.Errorf("failed to unmarshal battle progress %s: %w", battleID, err)
	}
	if record.ActionIndex < 0 {
		return 0, fmt.Errorf("battle %s: negative action index %d", battleID, record.ActionIndex)
	}

	s.records[battleID] = record
	log.Printf("[BattleProgressStore] 读取进度 %s: %d", battleID, record.ActionIndex)
	return record.ActionIndex, nil
}

// Clear 删除进度，战斗重新从头播放
func (s *BattleProgressStore) Clear(battleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, battleID)
	if s.gdataManager == nil || battleID == "" {
		return nil
	}
	if !s.gdataManager.ObjectPropExists(battleProgressObject, battleID) {
		return nil
	}
	if err := s.gdataManager.DeleteObjectProp(battleProgressObject, battleID); err != nil {
		return fmt.Errorf("failed to delete battle progress %s: %w", battleID, err)
	}
	return nil
}
