package game

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quasilyte/gdata/v2"
)

// createTestGdataManager 创建测试用 gdata Manager，不可用时返回 nil
func createTestGdataManager(t *testing.T) *gdata.Manager {
	t.Helper()
	appName := fmt.Sprintf("halfslg_progress_test_%d", time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil
	}

	t.Cleanup(func() {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			os.RemoveAll(filepath.Join(homeDir, ".local", "share", appName))
		}
	})
	return manager
}

// TestBattleProgressStoreMemory 测试降级模式（仅内存）
func TestBattleProgressStoreMemory(t *testing.T) {
	store := NewBattleProgressStore(nil)

	if index, err := store.Load("demo"); err != nil || index != 0 {
		t.Errorf("Load() without record = (%d, %v), want (0, nil)", index, err)
	}
	if err := store.RecordProgress("demo", 3); err != nil {
		t.Fatalf("RecordProgress() failed: %v", err)
	}
	if index, _ := store.Load("demo"); index != 3 {
		t.Errorf("Load() = %d, want 3", index)
	}
	if err := store.Clear("demo"); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if index, _ := store.Load("demo"); index != 0 {
		t.Errorf("Load() after Clear = %d, want 0", index)
	}
}

// TestBattleProgressStoreInvalid 测试无效参数
func TestBattleProgressStoreInvalid(t *testing.T) {
	tests := []struct {
		name     string
		battleID string
		index    int
	}{
		{"empty id", "", 1},
		{"negative index", "demo", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewBattleProgressStore(nil)
			if err := store.Save(tt.battleID, tt.index); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestBattleProgressStoreGdata 测试写入 gdata 后由新实例读取
func TestBattleProgressStoreGdata(t *testing.T) {
	manager := createTestGdataManager(t)
	if manager == nil {
		t.Skip("gdata is not available on this platform")
	}

	store := NewBattleProgressStore(manager)
	if err := store.Save("demo", 4); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !manager.ObjectPropExists(battleProgressObject, "demo") {
		t.Fatal("progress should be written to gdata")
	}

	reloaded := NewBattleProgressStore(manager)
	if index, err := reloaded.Load("demo"); err != nil || index != 4 {
		t.Errorf("Load() = (%d, %v), want (4, nil)", index, err)
	}

	if err := reloaded.Clear("demo"); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if manager.ObjectPropExists(battleProgressObject, "demo") {
		t.Error("Clear() should delete the gdata record")
	}
	if index, _ := NewBattleProgressStore(manager).Load("demo"); index != 0 {
		t.Errorf("Load() after Clear = %d, want 0", index)
	}
}

// TestBattleProgressStoreCorrupted 测试损坏的记录
func TestBattleProgressStoreCorrupted(t *testing.T) {
	manager := createTestGdataManager(t)
	if manager == nil {
		t.Skip("gdata is not available on this platform")
	}
	if err := manager.SaveObjectProp(battleProgressObject, "broken", []byte("actionIndex: [")); err != nil {
		t.Fatalf("SaveObjectProp() failed: %v", err)
	}

	if _, err := NewBattleProgressStore(manager).Load("broken"); err == nil {
		t.Error("expected error for corrupted record")
	}
}
