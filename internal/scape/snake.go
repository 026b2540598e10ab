package scape

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var ErrInvalidGrid = errors.New("invalid grid size")

type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionLeft
	DirectionRight
	DirectionNone
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "none"
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	default:
		return DirectionNone
	}
}

const (
	ReasonSelfHit = "The snake hit itself."
	ReasonWallHit = "The snake hit the wall."
	ReasonHunger  = "The snake died because of hunger."
)

// FeatureCount is the length of Game.Features.
const FeatureCount = 8

type Point struct {
	X int
	Y int
}

// offField marks a cell that is not on the grid: a freshly grown tail segment
// or food that could not be placed.
var offField = Point{X: -1, Y: -1}

type GameConfig struct {
	Width          int
	Height         int
	TicksPerSecond int
	MaxStep        int
	Seed           int64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Game is a single snake episode. It is not safe for concurrent use.
type Game struct {
	width          int
	height         int
	ticksPerSecond int
	maxStep        int

	clock    func() time.Time
	lastTick time.Time
	rng      *rand.Rand

	body        []Point
	dir         Direction
	stepsRemain int
	food        Point

	initStepsToFood  int
	totalStepsToFood int
	totalStepsUsed   int

	over   bool
	reason string

	hitDist  [4]int
	foodDist [4]int

	background []byte
	foreground []byte
	term       Terminal
}

// NewGame places a one-cell snake and the first food at seeded random cells.
func NewGame(cfg GameConfig) (*Game, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, cfg.Width, cfg.Height)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	cells := cfg.Width * cfg.Height
	g := &Game{
		width:          cfg.Width,
		height:         cfg.Height,
		ticksPerSecond: cfg.TicksPerSecond,
		maxStep:        cfg.MaxStep,
		clock:          clock,
		lastTick:       clock(),
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		body:           make([]Point, 1, cells+1),
		dir:            DirectionNone,
		stepsRemain:    cfg.MaxStep,
		background:     make([]byte, cells),
		foreground:     make([]byte, cells),
	}
	for i := range g.background {
		g.background[i] = ' '
		g.foreground[i] = ' '
	}
	g.body[0] = g.randomCell()
	g.placeFood()
	g.computeDistances()
	return g, nil
}

func (g *Game) Width() int            { return g.width }
func (g *Game) Height() int           { return g.height }
func (g *Game) Direction() Direction  { return g.dir }
func (g *Game) Food() Point           { return g.food }
func (g *Game) Head() Point           { return g.body[0] }
func (g *Game) Len() int              { return len(g.body) }
func (g *Game) StepsRemaining() int   { return g.stepsRemain }
func (g *Game) TotalStepsUsed() int   { return g.totalStepsUsed }
func (g *Game) TotalStepsToFood() int { return g.totalStepsToFood }
func (g *Game) IsOver() bool          { return g.over }

// Reason is the cause of termination, empty while the game runs.
func (g *Game) Reason() string { return g.reason }

// Body returns a copy of the snake cells, head first.
func (g *Game) Body() []Point {
	return append([]Point(nil), g.body...)
}

// HitDistances returns the cells left before a collision going up, down, left, right.
func (g *Game) HitDistances() [4]int { return g.hitDist }

// FoodDistances returns the signed offsets to food for up, down, left, right.
func (g *Game) FoodDistances() [4]int { return g.foodDist }

// Features is the network input: four hit distances then four food distances.
func (g *Game) Features() []float32 {
	return g.AppendFeatures(make([]float32, 0, FeatureCount))
}

func (g *Game) AppendFeatures(dst []float32) []float32 {
	for _, d := range g.hitDist {
		dst = append(dst, float32(d))
	}
	for _, d := range g.foodDist {
		dst = append(dst, float32(d))
	}
	return dst
}

func (g *Game) Score() int {
	return len(g.body) - 1
}

// Performance is score² scaled by how directly the snake reached its food.
func (g *Game) Performance() float64 {
	score := g.Score()
	if score == 0 || g.totalStepsUsed == 0 {
		return 0
	}
	return float64(score*score) * float64(g.totalStepsToFood) / float64(g.totalStepsUsed)
}

// SetDirection changes the pending move. With preventReversal the exact
// opposite of the current direction is ignored.
func (g *Game) SetDirection(dir Direction, preventReversal bool) {
	if preventReversal && g.dir != DirectionNone && dir == g.dir.Opposite() {
		return
	}
	g.dir = dir
}

// Over ends the game with reason unless it has already ended.
func (g *Game) Over(reason string) {
	if g.over {
		return
	}
	g.over = true
	g.reason = reason
}

// Update advances one tick. Without force the tick is skipped until
// 1/TicksPerSecond has elapsed since the last accepted one. It reports whether
// the game state advanced.
func (g *Game) Update(force, render bool) bool {
	if g.over {
		if render {
			g.draw()
		}
		return false
	}
	if !force && !g.tickDue() {
		return false
	}

	g.move()
	g.computeDistances()

	if g.body[0] == g.food {
		g.eat()
		g.placeFood()
	}

	switch {
	case g.hitsItself():
		g.Over(ReasonSelfHit)
	case g.outOfField(g.body[0]):
		g.Over(ReasonWallHit)
	case g.stepsRemain == 0:
		g.Over(ReasonHunger)
	}

	if render {
		g.draw()
	}
	return true
}

func (g *Game) tickDue() bool {
	if g.ticksPerSecond <= 0 {
		return true
	}
	now := g.clock()
	if now.Sub(g.lastTick) < time.Second/time.Duration(g.ticksPerSecond) {
		return false
	}
	g.lastTick = now
	return true
}

// move shifts the body toward the head and spends one step. Without a
// direction the snake stays in place but still spends the step, so a
// controller that never turns starves instead of playing forever.
func (g *Game) move() {
	g.stepsRemain--
	if g.dir == DirectionNone {
		return
	}
	for i := len(g.body) - 1; i > 0; i-- {
		g.body[i] = g.body[i-1]
	}
	switch g.dir {
	case DirectionUp:
		g.body[0].Y--
	case DirectionDown:
		g.body[0].Y++
	case DirectionLeft:
		g.body[0].X--
	case DirectionRight:
		g.body[0].X++
	}
}

func (g *Game) eat() {
	g.totalStepsUsed += g.maxStep - g.stepsRemain
	g.totalStepsToFood += g.initStepsToFood
	g.stepsRemain = g.maxStep
	g.body = append(g.body, offField)
}

func (g *Game) hitsItself() bool {
	for _, p := range g.body[1:] {
		if p == g.body[0] {
			return true
		}
	}
	return false
}

func (g *Game) outOfField(p Point) bool {
	return p.X < 0 || p.X >= g.width || p.Y < 0 || p.Y >= g.height
}

func (g *Game) randomCell() Point {
	return Point{X: g.rng.Intn(g.width), Y: g.rng.Intn(g.height)}
}

// placeFood draws random cells until one is free of the snake. When the snake
// covers the whole grid the food is parked off the field.
func (g *Game) placeFood() {
	occupied := make([]bool, g.width*g.height)
	free := len(occupied)
	for _, p := range g.body {
		if g.outOfField(p) {
			continue
		}
		idx := g.index(p.X, p.Y)
		if !occupied[idx] {
			occupied[idx] = true
			free--
		}
	}
	if free == 0 {
		g.food = offField
		g.initStepsToFood = 0
		return
	}

	food := g.randomCell()
	for occupied[g.index(food.X, food.Y)] {
		food = g.randomCell()
	}
	g.food = food
	g.initStepsToFood = abs(food.X-g.body[0].X) + abs(food.Y-g.body[0].Y)
}

func (g *Game) computeDistances() {
	head := g.body[0]
	wall := [4]int{
		head.Y,
		g.height - head.Y - 1,
		head.X,
		g.width - head.X - 1,
	}
	body := [4]int{g.height, g.height, g.width, g.width}
	for _, p := range g.body[1:] {
		dx := head.X - p.X
		dy := head.Y - p.Y
		switch {
		case dx == 0 && dy < 0:
			body[DirectionDown] = min(body[DirectionDown], -dy-1)
		case dx == 0 && dy > 0:
			body[DirectionUp] = min(body[DirectionUp], dy-1)
		case dy == 0 && dx < 0:
			body[DirectionRight] = min(body[DirectionRight], -dx-1)
		case dy == 0 && dx > 0:
			body[DirectionLeft] = min(body[DirectionLeft], dx-1)
		}
	}
	for i := range g.hitDist {
		g.hitDist[i] = min(wall[i], body[i])
	}

	g.foodDist[DirectionDown] = g.food.Y - head.Y
	g.foodDist[DirectionUp] = -g.foodDist[DirectionDown]
	g.foodDist[DirectionRight] = g.food.X - head.X
	g.foodDist[DirectionLeft] = -g.foodDist[DirectionRight]
}

func (g *Game) index(x, y int) int {
	return y*g.width + x
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
