package components

// PositionComponent 渲染器在网格本地坐标系中的位置
type PositionComponent struct {
	X float64
	Y float64
}

// Waypoint 移动路径上的一个点（网格本地坐标）
type Waypoint struct {
	X float64
	Y float64
}

// UnitMotionComponent 战斗单位沿路径逐格移动的动画状态
//
// 每段（相邻两个路径点之间）耗时 StepDuration 秒，线性插值。
// 走完最后一段后 IsFinished 置为 true，由动画系统移除组件。
type UnitMotionComponent struct {
	Waypoints    []Waypoint // 第 0 个点为起点
	Segment      int        // 当前段下标，从 0 开始
	Elapsed      float64    // 当前段已过时间（秒）
	StepDuration float64    // 每段时长（秒）
	IsFinished   bool
}

// SkillCastComponent 技能释放动画（仅计时）
type SkillCastComponent struct {
	SkillID  string
	Duration float64
	Elapsed  float64
}
