package game

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// mockScene 记录调用情况的场景
type mockScene struct {
	updateCalled bool
	drawCalled   bool
	deltaTime    float64
	saveResult   bool
	saveCalled   bool
}

func (m *mockScene) Update(deltaTime float64) {
	m.updateCalled = true
	m.deltaTime = deltaTime
}

func (m *mockScene) Draw(screen *ebiten.Image) {
	m.drawCalled = true
}

func (m *mockScene) SaveOnExit() bool {
	m.saveCalled = true
	return m.saveResult
}

// plainScene 不实现 Saveable
type plainScene struct{}

func (plainScene) Update(float64) {}
func (plainScene) Draw(*ebiten.Image) {}

// TestSceneManagerDispatch 测试 Update/Draw 转发给当前场景
func TestSceneManagerDispatch(t *testing.T) {
	sm := NewSceneManager()
	// 没有场景时不应 panic
	sm.Update(0.016)
	sm.Draw(nil)

	scene := &mockScene{}
	sm.SwitchTo(scene)
	if sm.GetCurrentScene() != scene {
		t.Fatal("SwitchTo() did not set the current scene")
	}

	sm.Update(0.016)
	sm.Draw(nil)
	if !scene.updateCalled || scene.deltaTime != 0.016 {
		t.Errorf("Update() not forwarded, deltaTime = %v", scene.deltaTime)
	}
	if !scene.drawCalled {
		t.Error("Draw() not forwarded")
	}
}

// TestSceneManagerLoadBattle 测试通过工厂加载战斗
func TestSceneManagerLoadBattle(t *testing.T) {
	tests := []struct {
		name      string
		factory   SceneFactory
		wantOK    bool
		wantScene bool
	}{
		{"no factory", nil, false, false},
		{"factory error", func(string) (Scene, error) { return nil, errors.New("boom") }, false, false},
		{"factory ok", func(id string) (Scene, error) { return &mockScene{}, nil }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewSceneManager()
			sm.SetSceneFactory(tt.factory)
			if got := sm.LoadBattle("demo"); got != tt.wantOK {
				t.Errorf("LoadBattle() = %v, want %v", got, tt.wantOK)
			}
			if (sm.GetCurrentScene() != nil) != tt.wantScene {
				t.Errorf("current scene = %v, wantScene %v", sm.GetCurrentScene(), tt.wantScene)
			}
		})
	}
}

// TestSceneManagerSaveCurrentScene 测试退出时保存
func TestSceneManagerSaveCurrentScene(t *testing.T) {
	sm := NewSceneManager()
	if !sm.SaveCurrentScene() {
		t.Error("no scene should report success")
	}

	sm.SwitchTo(plainScene{})
	if !sm.SaveCurrentScene() {
		t.Error("non-saveable scene should report success")
	}

	scene := &mockScene{saveResult: false}
	sm.SwitchTo(scene)
	if sm.SaveCurrentScene() || !scene.saveCalled {
		t.Error("SaveCurrentScene() should return the scene's result")
	}
}
