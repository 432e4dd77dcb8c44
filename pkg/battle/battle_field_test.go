package battle

import (
	"sync"
	"testing"

	"github.com/decker502/halfslg/pkg/ecs"
	"github.com/decker502/halfslg/pkg/utils"
)

// newTestField 创建 5x5 地图、两支队伍各一名单位的战场
func newTestField(t *testing.T) *BattleField {
	t.Helper()
	field := NewBattleField("test-battle", newTestMap(t, 5, 5, false))
	field.AddTeam()
	field.AddTeam()

	hero := &BattleUnit{ID: 1, Name: "hero", Mobility: 2, HP: 100, MaxHP: 100,
		Skills: []*BattleSkill{{ID: "slash", Name: "Slash", ReleaseRadius: 1, Damage: 30}}}
	enemy := &BattleUnit{ID: 2, Name: "enemy", Mobility: 2, HP: 80, MaxHP: 80}
	if err := field.AddBattleUnit(0, hero, 1, 1); err != nil {
		t.Fatalf("AddBattleUnit(hero) failed: %v", err)
	}
	if err := field.AddBattleUnit(1, enemy, 3, 3); err != nil {
		t.Fatalf("AddBattleUnit(enemy) failed: %v", err)
	}
	return field
}

// TestBattleFieldAddBattleUnit 测试单位加入战场
func TestBattleFieldAddBattleUnit(t *testing.T) {
	field := newTestField(t)

	hero := field.BattleUnit(1)
	if hero == nil {
		t.Fatal("BattleUnit(1) is nil")
	}
	if hero.TeamIndex != 0 {
		t.Errorf("hero.TeamIndex = %d, want 0", hero.TeamIndex)
	}
	if g := field.BattleMap.Grid(1, 1); g.BattleUnit != hero || hero.Grid != g {
		t.Error("hero should occupy grid (1,1)")
	}
	if field.BattleUnit(99) != nil {
		t.Error("unknown id should return nil")
	}
	if got := len(field.BattleUnits()); got != 2 {
		t.Errorf("BattleUnits() returned %d units, want 2", got)
	}

	tests := []struct {
		name     string
		team     int
		unit     *BattleUnit
		col, row int
	}{
		{"missing team", 5, &BattleUnit{ID: 10}, 0, 0},
		{"duplicate id", 0, &BattleUnit{ID: 1}, 0, 0},
		{"occupied grid", 0, &BattleUnit{ID: 11}, 1, 1},
		{"outside map", 0, &BattleUnit{ID: 12}, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := field.AddBattleUnit(tt.team, tt.unit, tt.col, tt.row); err == nil {
				t.Error("expected error")
			}
		})
	}

	field.BattleMap.SetObstacle(0, 4)
	if err := field.AddBattleUnit(0, &BattleUnit{ID: 13}, 0, 4); err == nil {
		t.Error("obstacle grid should reject units")
	}
}

// TestBattleUnitEnterGrid 测试格子占用关系
func TestBattleUnitEnterGrid(t *testing.T) {
	field := newTestField(t)
	hero := field.BattleUnit(1)
	from := hero.Grid
	to := field.BattleMap.Grid(2, 1)

	if err := hero.EnterGrid(to); err != nil {
		t.Fatalf("EnterGrid() failed: %v", err)
	}
	if from.BattleUnit != nil {
		t.Error("old grid should be released")
	}
	if to.BattleUnit != hero || hero.Grid != to {
		t.Error("hero should occupy the new grid")
	}
	if err := hero.EnterGrid(to); err != nil {
		t.Errorf("entering the current grid should be a no-op, got %v", err)
	}
	if err := hero.EnterGrid(field.BattleMap.Grid(3, 3)); err == nil {
		t.Error("entering an occupied grid should fail")
	}
	if err := hero.EnterGrid(nil); err == nil {
		t.Error("entering a nil grid should fail")
	}

	hero.LeaveGrid()
	if to.BattleUnit != nil || hero.Grid != nil {
		t.Error("LeaveGrid() should clear both sides")
	}
}

// TestBattleUnitTakeDamage 测试伤害结算
func TestBattleUnitTakeDamage(t *testing.T) {
	tests := []struct {
		name      string
		hp        int
		damage    int
		wantTaken int
		wantHP    int
		wantDead  bool
	}{
		{"normal", 100, 30, 30, 70, false},
		{"overkill", 20, 50, 20, 0, true},
		{"zero", 50, 0, 0, 50, false},
		{"negative", 50, -5, 0, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &BattleUnit{HP: tt.hp, MaxHP: tt.hp}
			if got := u.TakeDamage(tt.damage); got != tt.wantTaken {
				t.Errorf("TakeDamage() = %d, want %d", got, tt.wantTaken)
			}
			if u.HP != tt.wantHP {
				t.Errorf("HP = %d, want %d", u.HP, tt.wantHP)
			}
			if u.IsDead() != tt.wantDead {
				t.Errorf("IsDead() = %v, want %v", u.IsDead(), tt.wantDead)
			}
		})
	}
}

// TestBattleUnitRenderer 测试渲染器连接状态
func TestBattleUnitRenderer(t *testing.T) {
	u := &BattleUnit{ID: 1}
	if u.HasRenderer() {
		t.Error("new unit should not have a renderer")
	}
	u.ConnectRenderer(ecs.EntityID(7))
	if !u.HasRenderer() || u.RendererID != 7 {
		t.Errorf("RendererID = %d, want 7", u.RendererID)
	}
	u.DisconnectRenderer()
	if u.HasRenderer() {
		t.Error("renderer should be disconnected")
	}
	if u.Skill("none") != nil {
		t.Error("Skill() of unknown id should be nil")
	}
}

// TestBattleFieldCurrentIndex 测试播放进度
func TestBattleFieldCurrentIndex(t *testing.T) {
	field := newTestField(t)
	if field.CurrentIndex() != 0 {
		t.Errorf("initial index = %d, want 0", field.CurrentIndex())
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			field.AdvanceIndex()
		}()
	}
	wg.Wait()
	if field.CurrentIndex() != 50 {
		t.Errorf("index = %d, want 50", field.CurrentIndex())
	}

	field.SetCurrentIndex(-3)
	if field.CurrentIndex() != 0 {
		t.Errorf("negative index should clamp to 0, got %d", field.CurrentIndex())
	}
}

// TestBattleFieldFastForward 测试从存档恢复时应用已播放的动作
func TestBattleFieldFastForward(t *testing.T) {
	newField := func(t *testing.T) *BattleField {
		field := newTestField(t)
		hero, enemy := field.BattleUnit(1), field.BattleUnit(2)
		field.MsgAction = &MsgBattleAction{BattleActions: []BattleAction{
			&BattleRoundAction{Round: 1},
			&BattleHeroAction{ActionUnit: hero, Kind: HeroActionMove,
				Path: []utils.CellRef{{Column: 2, Row: 1}, {Column: 2, Row: 2}}},
			nil,
			&BattleHeroAction{ActionUnit: hero, Kind: HeroActionSkill, SkillID: "slash",
				TargetUnits: []*BattleUnit{enemy}, Damage: 30},
			&BattleHeroAction{ActionUnit: enemy, Kind: HeroActionStay},
			// 终点被 hero 占据
			&BattleHeroAction{ActionUnit: enemy, Kind: HeroActionMove,
				Path: []utils.CellRef{{Column: 2, Row: 2}}},
		}}
		return field
	}

	tests := []struct {
		name      string
		index     int
		wantHero  utils.CellRef
		wantHP    int
		wantIndex int
		wantErr   bool
	}{
		{"start", 0, utils.CellRef{Column: 1, Row: 1}, 80, 0, false},
		{"after move", 2, utils.CellRef{Column: 2, Row: 2}, 80, 2, false},
		{"after skill", 4, utils.CellRef{Column: 2, Row: 2}, 50, 4, false},
		{"blocked move", 6, utils.CellRef{Column: 2, Row: 2}, 50, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := newField(t)
			err := field.FastForward(tt.index)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FastForward(%d) error = %v, wantErr %v", tt.index, err, tt.wantErr)
			}
			hero := field.BattleUnit(1)
			if hero.Grid == nil || hero.Grid.Ref() != tt.wantHero {
				t.Errorf("hero grid = %v, want %v", hero.Grid, tt.wantHero)
			}
			if field.BattleMap.GridAt(tt.wantHero).BattleUnit != hero {
				t.Error("hero should occupy its destination")
			}
			if tt.index > 0 && field.BattleMap.Grid(1, 1).BattleUnit != nil {
				t.Error("start grid should be vacated")
			}
			if enemy := field.BattleUnit(2); enemy.HP != tt.wantHP {
				t.Errorf("enemy HP = %d, want %d", enemy.HP, tt.wantHP)
			}
			if field.CurrentIndex() != tt.wantIndex {
				t.Errorf("CurrentIndex = %d, want %d", field.CurrentIndex(), tt.wantIndex)
			}
		})
	}

	t.Run("index past the end", func(t *testing.T) {
		field := newField(t)
		field.MsgAction.BattleActions = field.MsgAction.BattleActions[:5]
		if err := field.FastForward(9); err != nil {
			t.Fatalf("FastForward(9) failed: %v", err)
		}
		if field.CurrentIndex() != 9 {
			t.Errorf("CurrentIndex = %d, want 9", field.CurrentIndex())
		}
		if enemy := field.BattleUnit(2); enemy.HP != 50 {
			t.Errorf("enemy HP = %d, want 50", enemy.HP)
		}
	})
}
