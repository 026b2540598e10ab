package scape

import (
	"errors"
	"testing"
	"time"
)

func newTestGame(t *testing.T, width, height, maxStep int) *Game {
	t.Helper()
	game, err := NewGame(GameConfig{Width: width, Height: height, MaxStep: maxStep, Seed: 7})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return game
}

func TestNewGameRejectsInvalidGrid(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
	}{
		{name: "zero width", width: 0, height: 4},
		{name: "zero height", width: 4, height: 0},
		{name: "negative", width: -1, height: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGame(GameConfig{Width: tc.width, Height: tc.height, MaxStep: 10})
			if !errors.Is(err, ErrInvalidGrid) {
				t.Fatalf("expected ErrInvalidGrid, got %v", err)
			}
		})
	}
}

func TestNewGamePlacesSnakeAndFoodApart(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		game, err := NewGame(GameConfig{Width: 4, Height: 3, MaxStep: 10, Seed: seed})
		if err != nil {
			t.Fatalf("new game: %v", err)
		}
		if game.Len() != 1 || game.Score() != 0 {
			t.Fatalf("seed %d: expected single cell snake, got len=%d", seed, game.Len())
		}
		if game.Head() == game.Food() {
			t.Fatalf("seed %d: food placed on the head at %+v", seed, game.Food())
		}
		if game.outOfField(game.Head()) || game.outOfField(game.Food()) {
			t.Fatalf("seed %d: head %+v or food %+v off the field", seed, game.Head(), game.Food())
		}
		if game.Direction() != DirectionNone || game.IsOver() {
			t.Fatalf("seed %d: unexpected initial state dir=%s over=%t", seed, game.Direction(), game.IsOver())
		}
	}
}

func TestNewGameIsDeterministicPerSeed(t *testing.T) {
	a := newTestGame(t, 32, 16, 500)
	b := newTestGame(t, 32, 16, 500)
	if a.Head() != b.Head() || a.Food() != b.Food() {
		t.Fatalf("same seed produced different games: %+v/%+v vs %+v/%+v", a.Head(), a.Food(), b.Head(), b.Food())
	}
}

func TestSingleCellGridHitsWallOnFirstMove(t *testing.T) {
	for _, dir := range []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight} {
		t.Run(dir.String(), func(t *testing.T) {
			game := newTestGame(t, 1, 1, 10)
			if game.Food() != offField {
				t.Fatalf("expected food parked off the field, got %+v", game.Food())
			}
			if got := game.HitDistances(); got != [4]int{} {
				t.Fatalf("expected zero hit distances, got %v", got)
			}

			game.SetDirection(dir, true)
			if !game.Update(true, false) {
				t.Fatal("expected forced update to advance")
			}
			if !game.IsOver() || game.Reason() != ReasonWallHit {
				t.Fatalf("expected wall hit, got over=%t reason=%q", game.IsOver(), game.Reason())
			}
			if game.Score() != 0 || game.Performance() != 0 {
				t.Fatalf("expected zero score and performance, got %d %f", game.Score(), game.Performance())
			}
		})
	}
}

func TestSetDirectionPreventsReversal(t *testing.T) {
	game := newTestGame(t, 5, 5, 10)

	game.SetDirection(DirectionDown, true)
	if game.Direction() != DirectionDown {
		t.Fatalf("expected any direction from none, got %s", game.Direction())
	}
	game.SetDirection(DirectionUp, true)
	if game.Direction() != DirectionDown {
		t.Fatalf("expected reversal to be ignored, got %s", game.Direction())
	}
	game.SetDirection(DirectionLeft, true)
	if game.Direction() != DirectionLeft {
		t.Fatalf("expected turn to apply, got %s", game.Direction())
	}
	game.SetDirection(DirectionRight, false)
	if game.Direction() != DirectionRight {
		t.Fatalf("expected reversal without prevention, got %s", game.Direction())
	}
}

func TestComputeDistances(t *testing.T) {
	game := newTestGame(t, 10, 6, 10)
	game.body = []Point{{X: 4, Y: 3}, {X: 4, Y: 1}, {X: 7, Y: 3}, {X: 4, Y: 5}, {X: 9, Y: 0}}
	game.food = Point{X: 1, Y: 5}
	game.computeDistances()

	if got, want := game.HitDistances(), [4]int{1, 1, 4, 2}; got != want {
		t.Fatalf("hit distances got=%v want=%v", got, want)
	}
	if got, want := game.FoodDistances(), [4]int{-2, 2, 3, -3}; got != want {
		t.Fatalf("food distances got=%v want=%v", got, want)
	}
	want := []float32{1, 1, 4, 2, -2, 2, 3, -3}
	got := game.Features()
	if len(got) != FeatureCount {
		t.Fatalf("expected %d features, got %d", FeatureCount, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("feature %d got=%f want=%f", i, got[i], want[i])
		}
	}
}

func TestUpdateEatsFoodAndGrows(t *testing.T) {
	game := newTestGame(t, 10, 10, 50)
	game.body = game.body[:1]
	game.body[0] = Point{X: 2, Y: 2}
	game.food = Point{X: 3, Y: 2}
	game.initStepsToFood = 1

	game.SetDirection(DirectionRight, true)
	game.Update(true, false)

	if game.Len() != 2 || game.Score() != 1 {
		t.Fatalf("expected snake to grow to 2, got %d", game.Len())
	}
	if game.Body()[1] != offField {
		t.Fatalf("expected new tail off the field, got %+v", game.Body()[1])
	}
	if game.StepsRemaining() != 50 {
		t.Fatalf("expected step budget reset, got %d", game.StepsRemaining())
	}
	if game.TotalStepsUsed() != 1 || game.TotalStepsToFood() != 1 {
		t.Fatalf("unexpected totals used=%d to_food=%d", game.TotalStepsUsed(), game.TotalStepsToFood())
	}
	if game.Performance() != 1 {
		t.Fatalf("expected performance 1, got %f", game.Performance())
	}
	for _, p := range game.Body() {
		if p == game.Food() {
			t.Fatalf("food relocated onto the body at %+v", p)
		}
	}

	game.food = Point{X: 0, Y: 9}
	game.Update(true, false)
	if got := game.Body(); got[0] != (Point{X: 4, Y: 2}) || got[1] != (Point{X: 3, Y: 2}) {
		t.Fatalf("unexpected body after shift: %+v", got)
	}
	if game.IsOver() {
		t.Fatalf("unexpected game over: %s", game.Reason())
	}
}

func TestTerminalConditionPriority(t *testing.T) {
	t.Run("self hit before hunger", func(t *testing.T) {
		game := newTestGame(t, 10, 10, 50)
		game.body = []Point{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 4}, {X: 5, Y: 4}, {X: 4, Y: 4}}
		game.food = Point{X: 0, Y: 0}
		game.dir = DirectionNone
		game.stepsRemain = 1

		game.SetDirection(DirectionUp, false)
		game.Update(true, false)
		if game.Reason() != ReasonSelfHit {
			t.Fatalf("expected self hit, got %q", game.Reason())
		}
	})
	t.Run("wall before hunger", func(t *testing.T) {
		game := newTestGame(t, 10, 10, 50)
		game.body = game.body[:1]
		game.body[0] = Point{X: 0, Y: 3}
		game.food = Point{X: 9, Y: 9}
		game.stepsRemain = 1

		game.SetDirection(DirectionLeft, false)
		game.Update(true, false)
		if game.Reason() != ReasonWallHit {
			t.Fatalf("expected wall hit, got %q", game.Reason())
		}
	})
	t.Run("hunger", func(t *testing.T) {
		game := newTestGame(t, 10, 10, 50)
		game.body = game.body[:1]
		game.body[0] = Point{X: 5, Y: 5}
		game.food = Point{X: 9, Y: 9}
		game.stepsRemain = 1

		game.SetDirection(DirectionLeft, false)
		game.Update(true, false)
		if game.Reason() != ReasonHunger {
			t.Fatalf("expected hunger, got %q", game.Reason())
		}
	})
}

func TestGameOverIsFinal(t *testing.T) {
	game := newTestGame(t, 5, 5, 10)
	game.Over("stopped")
	game.Over(ReasonWallHit)
	if game.Reason() != "stopped" {
		t.Fatalf("expected first reason to stick, got %q", game.Reason())
	}

	head := game.Head()
	game.SetDirection(DirectionUp, false)
	if game.Update(true, false) {
		t.Fatal("expected update on a finished game to be a no-op")
	}
	if game.Head() != head {
		t.Fatalf("finished game moved from %+v to %+v", head, game.Head())
	}
}

func TestPerformanceIsZeroWithoutScore(t *testing.T) {
	game := newTestGame(t, 10, 10, 50)
	game.body = game.body[:1]
	game.body[0] = Point{X: 5, Y: 5}
	game.food = Point{X: 0, Y: 0}
	game.totalStepsUsed = 40
	game.totalStepsToFood = 12

	for _, dir := range []Direction{DirectionDown, DirectionRight, DirectionUp} {
		game.SetDirection(dir, true)
		game.Update(true, false)
	}
	if game.Score() != 0 || game.Performance() != 0 {
		t.Fatalf("expected zero performance without score, got %f", game.Performance())
	}
}

func TestPlaceFoodUsesOnlyFreeCells(t *testing.T) {
	game := newTestGame(t, 3, 3, 10)
	game.body = game.body[:0]
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if x == 2 && y == 1 {
				continue
			}
			game.body = append(game.body, Point{X: x, Y: y})
		}
	}
	for i := 0; i < 20; i++ {
		game.placeFood()
		if game.Food() != (Point{X: 2, Y: 1}) {
			t.Fatalf("expected the only free cell, got %+v", game.Food())
		}
	}

	game.body = append(game.body, Point{X: 2, Y: 1})
	game.placeFood()
	if game.Food() != offField {
		t.Fatalf("expected food parked off the field on a full grid, got %+v", game.Food())
	}
}

func TestUpdateRateLimit(t *testing.T) {
	now := time.Unix(100, 0)
	game, err := NewGame(GameConfig{
		Width:          5,
		Height:         5,
		TicksPerSecond: 8,
		MaxStep:        10,
		Clock:          func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new game: %v", err)
	}

	if game.Update(false, false) {
		t.Fatal("expected update to wait for the first tick")
	}
	now = now.Add(100 * time.Millisecond)
	if game.Update(false, false) {
		t.Fatal("expected update before 125ms to be skipped")
	}
	now = now.Add(25 * time.Millisecond)
	if !game.Update(false, false) {
		t.Fatal("expected update after 125ms to advance")
	}
	if game.Update(false, false) {
		t.Fatal("expected the next tick to wait again")
	}
	if !game.Update(true, false) {
		t.Fatal("expected forced update to bypass the rate limit")
	}
}

func TestUpdateUnthrottledWithoutTickRate(t *testing.T) {
	game := newTestGame(t, 5, 5, 10)
	for i := 0; i < 3; i++ {
		if !game.Update(false, false) {
			t.Fatalf("tick %d: expected unthrottled update", i)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	pairs := map[Direction]Direction{
		DirectionUp:    DirectionDown,
		DirectionDown:  DirectionUp,
		DirectionLeft:  DirectionRight,
		DirectionRight: DirectionLeft,
		DirectionNone:  DirectionNone,
	}
	for dir, want := range pairs {
		if got := dir.Opposite(); got != want {
			t.Fatalf("%s opposite got=%s want=%s", dir, got, want)
		}
	}
}

func TestStandingStillStarves(t *testing.T) {
	game := newTestGame(t, 6, 6, 3)
	head := game.Head()
	for i := 0; i < 3; i++ {
		game.Update(true, false)
	}
	if game.Head() != head {
		t.Fatalf("expected the head to stay at %+v, got %+v", head, game.Head())
	}
	if game.Reason() != ReasonHunger {
		t.Fatalf("expected hunger after the step budget, got %q", game.Reason())
	}
}

func TestStandingStillKeepsGrownBody(t *testing.T) {
	game := newTestGame(t, 8, 8, 4)
	game.body = append(game.body[:1], Point{X: 3, Y: 3}, Point{X: 2, Y: 3})
	game.body[0] = Point{X: 4, Y: 3}
	game.dir = DirectionRight
	game.food = Point{X: 0, Y: 7}

	game.SetDirection(DirectionNone, true)
	want := game.Body()
	for i := 0; i < 3; i++ {
		game.Update(true, false)
		if game.IsOver() {
			t.Fatalf("tick %d: unexpected game over: %s", i, game.Reason())
		}
	}
	got := game.Body()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected the body to stay at %+v, got %+v", want, got)
		}
	}
	if game.StepsRemaining() != 1 {
		t.Fatalf("expected standing still to spend steps, got %d remaining", game.StepsRemaining())
	}

	game.Update(true, false)
	if game.Reason() != ReasonHunger {
		t.Fatalf("expected hunger rather than a self hit, got %q", game.Reason())
	}
}
