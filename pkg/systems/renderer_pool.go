package systems

import (
	"log"

	"github.com/decker502/halfslg/pkg/components"
	"github.com/decker502/halfslg/pkg/ecs"
)

// RendererFactory 为新建的池实体添加渲染组件
type RendererFactory func(em *ecs.EntityManager, id ecs.EntityID)

// RendererPool 渲染器对象池
//
// 池中的渲染器都是拥有 PoolComponent 的实体，
// 取用时按创建顺序返回第一个空闲实体，没有空闲实体时新建。
// 只能在游戏主循环中使用。
type RendererPool struct {
	entityManager *ecs.EntityManager
	kind          components.RendererKind
	factory       RendererFactory
	entities      []ecs.EntityID // 按创建顺序
}

// NewRendererPool 创建渲染器对象池
//
// 参数：
//   - em: 实体管理器
//   - kind: 渲染器种类
//   - factory: 新建实体时调用，可为 nil
func NewRendererPool(em *ecs.EntityManager, kind components.RendererKind, factory RendererFactory) *RendererPool {
	return &RendererPool{
		entityManager: em,
		kind:          kind,
		factory:       factory,
	}
}

// Prewarm 预先创建渲染器，直到池大小不小于 n
func (p *RendererPool) Prewarm(n int) {
	for len(p.entities) < n {
		p.create()
	}
}

// Acquire 取出一个空闲渲染器并标记为使用中
func (p *RendererPool) Acquire() ecs.EntityID {
	for _, id := range p.entities {
		pool, ok := ecs.GetComponent[*components.PoolComponent](p.entityManager, id)
		if ok && !pool.InUse {
			pool.InUse = true
			return id
		}
	}

	id := p.create()
	pool, _ := ecs.GetComponent[*components.PoolComponent](p.entityManager, id)
	pool.InUse = true
	return id
}

// Release 归还渲染器
// 返回 false 表示实体不属于本池或已处于空闲状态
func (p *RendererPool) Release(id ecs.EntityID) bool {
	pool, ok := ecs.GetComponent[*components.PoolComponent](p.entityManager, id)
	if !ok || pool.Kind != p.kind || !pool.InUse {
		return false
	}
	pool.InUse = false
	return true
}

// ReleaseAll 归还所有渲染器
func (p *RendererPool) ReleaseAll() {
	for _, id := range p.entities {
		p.Release(id)
	}
}

// InUse 返回使用中的渲染器，按创建顺序
func (p *RendererPool) InUse() []ecs.EntityID {
	var ids []ecs.EntityID
	for _, id := range p.entities {
		if pool, ok := ecs.GetComponent[*components.PoolComponent](p.entityManager, id); ok && pool.InUse {
			ids = append(ids, id)
		}
	}
	return ids
}

// InUseCount 返回使用中的渲染器数量
func (p *RendererPool) InUseCount() int {
	return len(p.InUse())
}

// Size 返回池中渲染器总数
func (p *RendererPool) Size() int {
	return len(p.entities)
}

func (p *RendererPool) create() ecs.EntityID {
	id := p.entityManager.CreateEntity()
	ecs.AddComponent(p.entityManager, id, &components.PoolComponent{Kind: p.kind})
	if p.factory != nil {
		p.factory(p.entityManager, id)
	}
	p.entities = append(p.entities, id)
	if len(p.entities)%50 == 0 {
		log.Printf("[RendererPool] %s pool grew to %d", p.kind, len(p.entities))
	}
	return id
}
