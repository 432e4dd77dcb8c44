package game

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// ViewLayer 界面层级
// 同一层级内按注册顺序绘制，Popup 层总在 Base 层之上
type ViewLayer int

const (
	ViewLayerBase  ViewLayer = iota // 常驻界面（主界面）
	ViewLayerPopup                  // 弹出层（单位信息等），点击地图外时全部关闭
)

// 界面名称
const (
	ViewNameMain     = "main"
	ViewNameUnitInfo = "unit_info"
)

// View 一个界面
type View interface {
	Name() string
	Layer() ViewLayer
	IsVisible() bool
	SetVisible(visible bool)

	// Contains 判断屏幕坐标是否落在界面内
	Contains(x, y float64) bool

	Draw(screen *ebiten.Image)
}

// BaseView 矩形界面的通用实现，供具体界面嵌入
type BaseView struct {
	name    string
	layer   ViewLayer
	visible bool

	// 屏幕坐标下的矩形区域
	X, Y          float64
	Width, Height float64
}

// NewBaseView 创建默认隐藏的界面
func NewBaseView(name string, layer ViewLayer, x, y, width, height float64) BaseView {
	return BaseView{
		name:   name,
		layer:  layer,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// Name 界面名称
func (v *BaseView) Name() string { return v.name }

// Layer 界面层级
func (v *BaseView) Layer() ViewLayer { return v.layer }

// IsVisible 是否显示
func (v *BaseView) IsVisible() bool { return v.visible }

// SetVisible 设置显示状态
func (v *BaseView) SetVisible(visible bool) { v.visible = visible }

// Contains 判断点是否在矩形内（左闭右开）
func (v *BaseView) Contains(x, y float64) bool {
	return x >= v.X && x < v.X+v.Width && y >= v.Y && y < v.Y+v.Height
}

// ViewManager 界面管理器
//
// 只维护一个扁平的界面注册表和两个层级，不做界面栈。
// 只能在游戏主循环中使用。
type ViewManager struct {
	views map[string]View
	order []string // 注册顺序
}

// NewViewManager 创建界面管理器
func NewViewManager() *ViewManager {
	return &ViewManager{
		views: make(map[string]View),
	}
}

// Register 注册界面，同名界面会被替换
func (vm *ViewManager) Register(v View) {
	if _, exists := vm.views[v.Name()]; !exists {
		vm.order = append(vm.order, v.Name())
	}
	vm.views[v.Name()] = v
}

// ShowView 显示界面
// 返回 false 表示界面未注册
func (vm *ViewManager) ShowView(name string) bool {
	v, ok := vm.views[name]
	if !ok {
		log.Printf("[ViewManager] 界面未注册: %s", name)
		return false
	}
	v.SetVisible(true)
	return true
}

// HideView 隐藏界面
func (vm *ViewManager) HideView(name string) {
	if v, ok := vm.views[name]; ok {
		v.SetVisible(false)
	}
}

// HideViews 隐藏指定层级的所有界面
func (vm *ViewManager) HideViews(layer ViewLayer) {
	for _, name := range vm.order {
		if v := vm.views[name]; v.Layer() == layer {
			v.SetVisible(false)
		}
	}
}

// GetView 按名称获取界面，没有时返回 nil
func (vm *ViewManager) GetView(name string) View {
	return vm.views[name]
}

// GetViewAs 按名称获取指定类型的界面
//
//	mainView, ok := game.GetViewAs[*game.MainView](vm, game.ViewNameMain)
func GetViewAs[T View](vm *ViewManager, name string) (T, bool) {
	var zero T
	v, ok := vm.views[name]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// IsPointerOverView 判断屏幕坐标是否落在任一可见界面上
func (vm *ViewManager) IsPointerOverView(x, y float64) bool {
	for _, name := range vm.order {
		if v := vm.views[name]; v.IsVisible() && v.Contains(x, y) {
			return true
		}
	}
	return false
}

// Draw 先绘制 Base 层，再绘制 Popup 层
func (vm *ViewManager) Draw(screen *ebiten.Image) {
	for _, layer := range []ViewLayer{ViewLayerBase, ViewLayerPopup} {
		for _, name := range vm.order {
			if v := vm.views[name]; v.Layer() == layer && v.IsVisible() {
				v.Draw(screen)
			}
		}
	}
}
