package embedded

import (
	"errors"
	"testing"
	"testing/fstest"
)

func initTestFS(t *testing.T) {
	t.Helper()
	Init(fstest.MapFS{
		"data/battle_layout.yaml":  {Data: []byte("gridWidth: 1.28\n")},
		"data/battles/demo.yaml":   {Data: []byte("id: demo\n")},
		"data/battles/second.yaml": {Data: []byte("id: second\n")},
	})
	t.Cleanup(func() { Init(nil) })
}

// TestNotInitialized 测试未初始化时的错误
func TestNotInitialized(t *testing.T) {
	Init(nil)
	if IsInitialized() {
		t.Fatal("IsInitialized() should be false")
	}
	if _, err := ReadFile("data/battle_layout.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ReadFile() = %v, want ErrNotInitialized", err)
	}
	if _, err := Open("data/battle_layout.yaml"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Open() = %v, want ErrNotInitialized", err)
	}
	if Exists("data/battle_layout.yaml") {
		t.Error("Exists() should be false before Init")
	}
}

// TestReadFile 测试路径标准化
func TestReadFile(t *testing.T) {
	initTestFS(t)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"plain", "data/battle_layout.yaml", "gridWidth: 1.28\n", false},
		{"dot prefix", "./data/battles/demo.yaml", "id: demo\n", false},
		{"wrong prefix", "assets/demo.yaml", "", true},
		{"missing", "data/missing.yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("ReadFile(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestGlobAndReadDir 测试目录查询
func TestGlobAndReadDir(t *testing.T) {
	initTestFS(t)

	matches, err := Glob("data/battles/*.yaml")
	if err != nil {
		t.Fatalf("Glob() failed: %v", err)
	}
	if len(matches) != 2 || matches[0] != "data/battles/demo.yaml" {
		t.Errorf("Glob() = %v", matches)
	}

	entries, err := ReadDir("data/battles")
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadDir() returned %d entries, want 2", len(entries))
	}

	if !Exists("data/battles/second.yaml") || Exists("data/battles/third.yaml") {
		t.Error("Exists() mismatch")
	}
}
