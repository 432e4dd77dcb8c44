package game

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// SceneFactory 按战斗ID创建场景，避免 game 包依赖具体场景
// 创建失败时返回 error
type SceneFactory func(battleID string) (Scene, error)

// SceneManager 场景管理器
// 同一时间只有一个场景接收 Update 和 Draw
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory
}

// NewSceneManager 创建没有活动场景的场景管理器
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo 切换到指定场景
func (sm *SceneManager) SwitchTo(scene Scene) {
	sm.currentScene = scene
}

// GetCurrentScene 返回当前场景，没有时返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// LoadBattle 加载战斗场景
//
// 参数：
//   - battleID: 战斗ID，对应 data/battles/<battleID>.yaml
//
// 返回：
//   - bool: 创建失败时返回 false，当前场景保持不变
func (sm *SceneManager) LoadBattle(battleID string) bool {
	log.Printf("[SceneManager] 加载战斗: %s", battleID)

	if sm.sceneFactory == nil {
		log.Printf("[SceneManager] 错误: SceneFactory 未设置")
		return false
	}

	scene, err := sm.sceneFactory(battleID)
	if err != nil || scene == nil {
		log.Printf("[SceneManager] 错误: 无法创建战斗场景 %s: %v", battleID, err)
		return false
	}
	sm.SwitchTo(scene)
	log.Printf("[SceneManager] 成功切换到战斗: %s", battleID)
	return true
}

// SaveCurrentScene 当前场景实现 Saveable 时保存状态
// 没有场景或场景不需要保存时返回 true
func (sm *SceneManager) SaveCurrentScene() bool {
	if s, ok := sm.currentScene.(Saveable); ok {
		return s.SaveOnExit()
	}
	return true
}

// Update 更新当前场景
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw 绘制当前场景
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
