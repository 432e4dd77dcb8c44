package components

// CameraComponent 战场摄像机
//
// 世界坐标系与网格本地坐标系同向（y 轴向上），屏幕坐标系 y 轴向下。
// 屏幕中心对准世界坐标 (X, Y)，Zoom 为每个世界单位对应的像素数。
type CameraComponent struct {
	// X, Y 屏幕中心对准的世界坐标
	X float64
	Y float64

	// Zoom 缩放（像素/世界单位），必须为正
	Zoom float64

	// ScreenWidth, ScreenHeight 视口尺寸（像素）
	ScreenWidth  float64
	ScreenHeight float64
}

// GridRootComponent 网格根节点在世界坐标系中的位置
// 网格本地坐标 = 世界坐标 - (X, Y)
type GridRootComponent struct {
	X float64
	Y float64
}
