package scape

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Terminal is a character-cell sink. Coordinates are 1-based columns and rows.
type Terminal interface {
	io.Writer
	MoveCursor(x, y int)
	Clear()
	Flush() error
}

// ANSITerminal drives a VT100-compatible terminal with escape sequences.
type ANSITerminal struct {
	w *bufio.Writer
}

func NewANSITerminal(w io.Writer) *ANSITerminal {
	return &ANSITerminal{w: bufio.NewWriter(w)}
}

func (t *ANSITerminal) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

func (t *ANSITerminal) MoveCursor(x, y int) {
	fmt.Fprintf(t.w, "\033[%d;%dH", y, x)
}

func (t *ANSITerminal) Clear() {
	_, _ = t.w.WriteString("\033[2J\033[H")
}

func (t *ANSITerminal) Flush() error {
	return t.w.Flush()
}

// SetTerminal attaches the sink used by rendered updates and Show. A nil
// terminal keeps the frame buffers current without drawing.
func (g *Game) SetTerminal(term Terminal) {
	g.term = term
}

// Frame returns the current background buffer, one string per grid row.
func (g *Game) Frame() []string {
	g.paint()
	rows := make([]string, g.height)
	for y := range rows {
		rows[y] = string(g.background[y*g.width : (y+1)*g.width])
	}
	return rows
}

// Show clears the terminal and draws the whole field inside a border. Later
// rendered updates only redraw the cells that changed.
func (g *Game) Show() error {
	g.paint()
	copy(g.foreground, g.background)
	if g.term == nil {
		return nil
	}

	g.term.Clear()
	edge := "+" + strings.Repeat("-", g.width) + "+\n"
	var b strings.Builder
	b.WriteString(edge)
	for y := 0; y < g.height; y++ {
		b.WriteByte('|')
		b.Write(g.foreground[y*g.width : (y+1)*g.width])
		b.WriteString("|\n")
	}
	b.WriteString(edge)
	if _, err := io.WriteString(g.term, b.String()); err != nil {
		return err
	}
	return g.term.Flush()
}

func (g *Game) draw() {
	g.paint()
	if g.term == nil {
		copy(g.foreground, g.background)
		return
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			idx := g.index(x, y)
			if g.foreground[idx] == g.background[idx] {
				continue
			}
			// +2 skips the 1-based origin and the border.
			g.term.MoveCursor(x+2, y+2)
			_, _ = g.term.Write(g.background[idx : idx+1])
			g.foreground[idx] = g.background[idx]
		}
	}
	g.term.MoveCursor(1, g.height+3)
	g.writeStatus(g.term)
	_ = g.term.Flush()
}

func (g *Game) writeStatus(w io.Writer) {
	fmt.Fprintf(w, "Step Remain: %3d, Score: %4d\n", g.stepsRemain, g.Score())
	fmt.Fprintf(w, "Distance to food: [%3d %3d %3d %3d]\n",
		g.foodDist[0], g.foodDist[1], g.foodDist[2], g.foodDist[3])
	fmt.Fprintf(w, "Distance to hit:  [%3d %3d %3d %3d]\n",
		g.hitDist[0], g.hitDist[1], g.hitDist[2], g.hitDist[3])
	fmt.Fprintf(w, "Total step used: %04d\n", g.totalStepsUsed)
	fmt.Fprintf(w, "Total step to food: %04d\n", g.totalStepsToFood)
	fmt.Fprintf(w, "Performance: %6.3f\n", g.Performance())
}

// paint redraws the background buffer from the game state.
func (g *Game) paint() {
	for i := range g.background {
		g.background[i] = ' '
	}
	head, body := byte('O'), byte('o')
	if g.over {
		head, body = 'X', 'x'
	}
	if p := g.body[0]; !g.outOfField(p) {
		g.background[g.index(p.X, p.Y)] = head
	}
	for _, p := range g.body[1:] {
		if g.outOfField(p) {
			continue
		}
		g.background[g.index(p.X, p.Y)] = body
	}
	if !g.outOfField(g.food) {
		g.background[g.index(g.food.X, g.food.Y)] = '*'
	}
}
