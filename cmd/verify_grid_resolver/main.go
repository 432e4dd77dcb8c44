// verify_grid_resolver 离线检查战斗地图的点击解析
//
// 加载布局和关卡配置，对每个格子检查：
//   - 格子中心解析回该格子
//   - 中心附近（HitRadius 内）的偏移点不会落到其他格子
//
// 也可以通过参数传入网格本地坐标点，打印解析结果：
//
//	go run ./cmd/verify_grid_resolver --battle demo 1.5,-1 3.2,-2.2
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/decker502/halfslg/pkg/battle"
	"github.com/decker502/halfslg/pkg/config"
	"github.com/decker502/halfslg/pkg/utils"
)

var (
	verbose      = flag.Bool("verbose", false, "显示详细调试信息")
	layoutPath   = flag.String("layout", config.DefaultBattleLayoutPath, "战场布局配置文件")
	battleID     = flag.String("battle", config.DefaultBattleID, "战斗ID")
	scenarioPath = flag.String("scenario", "", "关卡配置文件，优先于 --battle")
)

func main() {
	flag.Parse()
	if !*verbose {
		log.SetFlags(0)
	}

	layout, err := config.LoadBattleLayoutConfig(*layoutPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path := *scenarioPath
	if path == "" {
		path = config.BattleScenarioPath(*battleID)
	}
	scenario, err := config.LoadBattleScenarioConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	field, err := scenario.BuildBattleField(layout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := field.BattleMap
	mapLayout := m.Layout()
	resolver, err := utils.NewGridResolver(m, utils.GridResolverConfig{
		CellWidth:          mapLayout.GridWidth,
		RowVerticalSpacing: mapLayout.GridOffsetY,
		FirstRowOffset:     mapLayout.FirstRowOffset,
		HitRadius:          layout.HexRadius,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Battle %s: %dx%d, %d grids, hit radius %.3f\n",
		field.BattleID, m.Width, m.Height, m.GridCount(), layout.HexRadius)

	if flag.NArg() > 0 {
		for _, arg := range flag.Args() {
			x, y, err := parsePoint(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			printResolve(resolver, x, y)
		}
		return
	}

	failures := verifyCenters(m, resolver, layout.HexRadius)
	if failures > 0 {
		fmt.Printf("FAIL: %d checks failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("PASS")
}

// verifyCenters 检查每个格子中心及其周围 8 个方向的偏移点
func verifyCenters(m *battle.BattleMap, resolver *utils.GridResolver, hitRadius float64) int {
	// 偏移取格子内切圆以内，保证不会越过相邻格子的中垂线
	inner := math.Min(hitRadius, m.Layout().GridWidth/2) * 0.9
	failures := 0

	m.ForEachGrid(func(g *battle.GridUnit) {
		if cell, ok := resolver.Resolve(g.LocalX, g.LocalY); !ok || cell != g.Ref() {
			fmt.Printf("  center of %s resolved to %s (ok=%v)\n", g, cell, ok)
			failures++
			return
		}
		for i := 0; i < 8; i++ {
			angle := float64(i) * math.Pi / 4
			x := g.LocalX + inner*math.Cos(angle)
			y := g.LocalY + inner*math.Sin(angle)
			if cell, ok := resolver.Resolve(x, y); !ok || cell != g.Ref() {
				fmt.Printf("  point (%.3f, %.3f) near %s resolved to %s (ok=%v)\n", x, y, g, cell, ok)
				failures++
			}
		}
		if *verbose {
			fmt.Printf("  %s center (%.3f, %.3f) ok\n", g, g.LocalX, g.LocalY)
		}
	})
	return failures
}

func printResolve(resolver *utils.GridResolver, x, y float64) {
	column, row := resolver.ApproximateCell(x, y)
	cell, ok := resolver.Resolve(x, y)
	if !ok {
		fmt.Printf("(%.3f, %.3f) -> none (approx %d,%d)\n", x, y, column, row)
		return
	}
	fmt.Printf("(%.3f, %.3f) -> %s (approx %d,%d)\n", x, y, cell, column, row)
}

// parsePoint 解析 "x,y"
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return x, y, nil
}
