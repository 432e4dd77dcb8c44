package battle

import (
	"errors"
	"testing"

	"github.com/decker502/halfslg/pkg/utils"
)

// TestActionCodecRoundTrip 测试动作序列编码后能还原并关联到战场单位
func TestActionCodecRoundTrip(t *testing.T) {
	field := newTestField(t)
	hero := field.BattleUnit(1)
	enemy := field.BattleUnit(2)

	msg := &MsgBattleAction{BattleActions: []BattleAction{
		&BattleRoundAction{Round: 1},
		&BattleHeroAction{
			ActionUnit: hero,
			Kind:       HeroActionMove,
			Path:       []utils.CellRef{{Column: 2, Row: 1}, {Column: 2, Row: 2}},
		},
		nil,
		&BattleHeroAction{
			ActionUnit:  hero,
			Kind:        HeroActionSkill,
			SkillID:     "slash",
			TargetUnits: []*BattleUnit{enemy},
			Damage:      30,
		},
		&BattleHeroAction{ActionUnit: enemy, Kind: HeroActionStay},
	}}

	codec := NewActionCodec()
	data, err := codec.Encode(field.BattleID, msg)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	decoded, err := codec.Decode(data, field)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if decoded.Len() != msg.Len() {
		t.Fatalf("decoded %d actions, want %d", decoded.Len(), msg.Len())
	}

	round, ok := decoded.BattleActions[0].(*BattleRoundAction)
	if !ok || round.Round != 1 {
		t.Errorf("action 0 = %#v, want round 1", decoded.BattleActions[0])
	}

	move, ok := decoded.BattleActions[1].(*BattleHeroAction)
	if !ok {
		t.Fatalf("action 1 is %T, want *BattleHeroAction", decoded.BattleActions[1])
	}
	if move.ActionUnit != hero || move.Kind != HeroActionMove {
		t.Errorf("move action = %v/%s", move.ActionUnit, move.Kind)
	}
	if dest, ok := move.Destination(); !ok || dest != (utils.CellRef{Column: 2, Row: 2}) {
		t.Errorf("Destination() = %v,%v", dest, ok)
	}

	if decoded.BattleActions[2] != nil {
		t.Errorf("action 2 = %#v, want nil", decoded.BattleActions[2])
	}

	skill := decoded.BattleActions[3].(*BattleHeroAction)
	if skill.SkillID != "slash" || skill.Damage != 30 {
		t.Errorf("skill action = %q/%d", skill.SkillID, skill.Damage)
	}
	if len(skill.TargetUnits) != 1 || skill.TargetUnits[0] != enemy {
		t.Errorf("skill targets = %v, want [enemy]", skill.TargetUnits)
	}

	stay := decoded.BattleActions[4].(*BattleHeroAction)
	if stay.ActionUnit != enemy || stay.Kind != HeroActionStay {
		t.Errorf("stay action = %v/%s", stay.ActionUnit, stay.Kind)
	}
}

// TestActionCodecErrors 测试解码错误
func TestActionCodecErrors(t *testing.T) {
	field := newTestField(t)
	codec := NewActionCodec()
	stranger := &BattleUnit{ID: 42, Name: "stranger"}

	t.Run("unknown unit", func(t *testing.T) {
		data, err := codec.Encode(field.BattleID, &MsgBattleAction{BattleActions: []BattleAction{
			&BattleHeroAction{ActionUnit: stranger, Kind: HeroActionStay},
		}})
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		if _, err := codec.Decode(data, field); !errors.Is(err, ErrUnknownBattleUnit) {
			t.Errorf("expected ErrUnknownBattleUnit, got %v", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		data, err := codec.Encode(field.BattleID, &MsgBattleAction{BattleActions: []BattleAction{
			&BattleHeroAction{ActionUnit: field.BattleUnit(1), Kind: HeroActionSkill, TargetUnits: []*BattleUnit{stranger}},
		}})
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		if _, err := codec.Decode(data, field); !errors.Is(err, ErrUnknownBattleUnit) {
			t.Errorf("expected ErrUnknownBattleUnit, got %v", err)
		}
	})

	t.Run("unknown hero kind", func(t *testing.T) {
		data, err := codec.Encode(field.BattleID, &MsgBattleAction{BattleActions: []BattleAction{
			&BattleHeroAction{ActionUnit: field.BattleUnit(1), Kind: "dance"},
		}})
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		if _, err := codec.Decode(data, field); !errors.Is(err, ErrUnknownActionType) {
			t.Errorf("expected ErrUnknownActionType, got %v", err)
		}
	})

	t.Run("battle id mismatch", func(t *testing.T) {
		data, err := codec.Encode("other-battle", &MsgBattleAction{})
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}
		if _, err := codec.Decode(data, field); err == nil {
			t.Error("expected battle id mismatch error")
		}
	})

	t.Run("corrupt data", func(t *testing.T) {
		if _, err := codec.Decode([]byte{0xc1, 0x00}, field); err == nil {
			t.Error("expected unmarshal error")
		}
	})

	t.Run("nil field", func(t *testing.T) {
		if _, err := codec.Decode(nil, nil); err == nil {
			t.Error("expected error for nil field")
		}
	})

	t.Run("hero action without unit", func(t *testing.T) {
		_, err := codec.Encode(field.BattleID, &MsgBattleAction{BattleActions: []BattleAction{
			&BattleHeroAction{Kind: HeroActionStay},
		}})
		if err == nil {
			t.Error("expected encode error")
		}
	})
}
