package battle

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/decker502/halfslg/pkg/utils"
)

// ErrUnknownActionType 表示消息中出现了无法识别的动作类型
var ErrUnknownActionType = errors.New("unknown battle action type")

// wireActionMessage 战斗动作消息的 msgpack 结构
type wireActionMessage struct {
	BattleID string        `msgpack:"bid"`
	Actions  []*wireAction `msgpack:"acts"`
}

// wireAction 单个动作，nil 条目原样保留
type wireAction struct {
	Type    string   `msgpack:"t"`
	UnitID  int      `msgpack:"u,omitempty"`
	Kind    string   `msgpack:"k,omitempty"`
	Path    [][2]int `msgpack:"p,omitempty"` // [column,row]
	SkillID string   `msgpack:"s,omitempty"`
	Targets []int    `msgpack:"tg,omitempty"`
	Damage  int      `msgpack:"d,omitempty"`
	Round   int      `msgpack:"r,omitempty"`
}

// ActionCodec 战斗动作消息编解码器
//
// 战斗逻辑以 msgpack 二进制发送整场战斗的动作序列，
// 解码时按ID把动作关联到战场上的战斗单位。
type ActionCodec struct{}

// NewActionCodec 创建编解码器
func NewActionCodec() *ActionCodec {
	return &ActionCodec{}
}

// Encode 编码动作序列
func (c *ActionCodec) Encode(battleID string, msg *MsgBattleAction) ([]byte, error) {
	wire := wireActionMessage{BattleID: battleID}
	if msg != nil {
		wire.Actions = make([]*wireAction, 0, len(msg.BattleActions))
		for i, action := range msg.BattleActions {
			w, err := encodeAction(action)
			if err != nil {
				return nil, fmt.Errorf("action %d: %w", i, err)
			}
			wire.Actions = append(wire.Actions, w)
		}
	}

	data, err := msgpack.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal battle actions: %w", err)
	}
	return data, nil
}

// Decode 解码动作序列并关联到战场
//
// 返回：
//   - error: 消息损坏、战斗ID不匹配、动作类型未知（ErrUnknownActionType）
//     或单位不存在（ErrUnknownBattleUnit）时返回错误
func (c *ActionCodec) Decode(data []byte, field *BattleField) (*MsgBattleAction, error) {
	if field == nil {
		return nil, fmt.Errorf("battle field is nil")
	}

	var wire wireActionMessage
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battle actions: %w", err)
	}
	if wire.BattleID != field.BattleID {
		return nil, fmt.Errorf("battle id mismatch: message %q, field %q", wire.BattleID, field.BattleID)
	}

	msg := &MsgBattleAction{BattleActions: make([]BattleAction, 0, len(wire.Actions))}
	for i, w := range wire.Actions {
		action, err := decodeAction(w, field)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		msg.BattleActions = append(msg.BattleActions, action)
	}
	return msg, nil
}

func encodeAction(action BattleAction) (*wireAction, error) {
	switch a := action.(type) {
	case nil:
		return nil, nil
	case *BattleHeroAction:
		if a == nil {
			return nil, nil
		}
		if a.ActionUnit == nil {
			return nil, fmt.Errorf("hero action without unit")
		}
		w := &wireAction{
			Type:    string(ActionTypeHero),
			UnitID:  a.ActionUnit.ID,
			Kind:    string(a.Kind),
			SkillID: a.SkillID,
			Damage:  a.Damage,
		}
		for _, p := range a.Path {
			w.Path = append(w.Path, [2]int{p.Column, p.Row})
		}
		for _, t := range a.TargetUnits {
			w.Targets = append(w.Targets, t.ID)
		}
		return w, nil
	case *BattleRoundAction:
		if a == nil {
			return nil, nil
		}
		return &wireAction{Type: string(ActionTypeRound), Round: a.Round}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownActionType, action)
	}
}

func decodeAction(w *wireAction, field *BattleField) (BattleAction, error) {
	if w == nil {
		return nil, nil
	}
	switch ActionType(w.Type) {
	case ActionTypeHero:
		unit := field.BattleUnit(w.UnitID)
		if unit == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownBattleUnit, w.UnitID)
		}
		action := &BattleHeroAction{
			ActionUnit: unit,
			Kind:       HeroActionKind(w.Kind),
			SkillID:    w.SkillID,
			Damage:     w.Damage,
		}
		switch action.Kind {
		case HeroActionMove, HeroActionSkill, HeroActionStay:
		default:
			return nil, fmt.Errorf("%w: hero action kind %q", ErrUnknownActionType, w.Kind)
		}
		for _, p := range w.Path {
			action.Path = append(action.Path, utils.CellRef{Column: p[0], Row: p[1]})
		}
		for _, id := range w.Targets {
			target := field.BattleUnit(id)
			if target == nil {
				return nil, fmt.Errorf("%w: target %d", ErrUnknownBattleUnit, id)
			}
			action.TargetUnits = append(action.TargetUnits, target)
		}
		return action, nil
	case ActionTypeRound:
		return &BattleRoundAction{Round: w.Round}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, w.Type)
	}
}
