package systems

import (
	"math"
	"testing"

	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/ecs"
)

// TestFlashEffectSystem 测试闪白强度衰减与结束
func TestFlashEffectSystem(t *testing.T) {
	em := ecs.NewEntityManager()
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.FlashEffectComponent{Duration: 0.4, Intensity: 1, IsActive: true})
	idle := em.CreateEntity()
	ecs.AddComponent(em, idle, &components.FlashEffectComponent{Duration: 0.4, Intensity: 1})

	s := NewFlashEffectSystem(em)
	s.Update(0.1)

	flash, ok := ecs.GetComponent[*components.FlashEffectComponent](em, id)
	if !ok {
		t.Fatal("flash should still be active")
	}
	if math.Abs(flash.Intensity-0.75) > 1e-9 {
		t.Errorf("Intensity = %v, want 0.75", flash.Intensity)
	}

	s.Update(0.35)
	if ecs.HasComponent[*components.FlashEffectComponent](em, id) {
		t.Error("finished flash should be removed")
	}

	inactive, _ := ecs.GetComponent[*components.FlashEffectComponent](em, idle)
	if inactive == nil || inactive.Elapsed != 0 {
		t.Error("inactive flash should not advance")
	}
}
