package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// statusDuration is how long a status message stays on the status bar.
const statusDuration = 5 * time.Second

// EditorConfig holds the editor's options.
type EditorConfig struct {
	ScrollEnabled bool
}

// Editor is the local view of the document: its text, the cursor and the visible window.
// The text is always a copy of the CRDT content; the editor never edits the document itself.
type Editor struct {
	Text   []rune
	Cursor int

	Width  int
	Height int

	// ColOff and RowOff are the column and row of the text displayed in the top-left corner.
	ColOff int
	RowOff int

	ShowMsg   bool
	StatusMsg string

	// Users is the list of users editing the document.
	Users []string

	scrollEnabled bool
	statusUntil   time.Time

	cursorStyle *color.Color
}

func NewEditor(conf EditorConfig) *Editor {
	return &Editor{
		scrollEnabled: conf.ScrollEnabled,
		cursorStyle:   color.New(color.ReverseVideo),
	}
}

func (e *Editor) GetText() []rune {
	return e.Text
}

func (e *Editor) SetText(text string) {
	e.Text = []rune(text)
	e.clampCursor()
	e.scroll()
}

func (e *Editor) GetX() int {
	x, _ := e.calcXY(e.Cursor)
	return x
}

func (e *Editor) SetX(x int) {
	e.Cursor = x
	e.clampCursor()
	e.scroll()
}

func (e *Editor) GetY() int {
	_, y := e.calcXY(e.Cursor)
	return y
}

func (e *Editor) GetWidth() int {
	return e.Width
}

func (e *Editor) GetHeight() int {
	return e.Height
}

func (e *Editor) SetSize(w, h int) {
	e.Width = w
	e.Height = h
	e.scroll()
}

// AddRune adds a rune to the editor's state at the cursor and advances the cursor.
func (e *Editor) AddRune(r rune) {
	e.clampCursor()
	e.Text = append(e.Text, 0)
	copy(e.Text[e.Cursor+1:], e.Text[e.Cursor:])
	e.Text[e.Cursor] = r
	e.Cursor++
	e.scroll()
}

// SetStatusBar shows msg on the status bar for a few seconds.
func (e *Editor) SetStatusBar(msg string) {
	e.StatusMsg = msg
	e.ShowMsg = true
	e.statusUntil = time.Now().Add(statusDuration)
}

// View renders the visible part of the text, followed by the status bar.
func (e *Editor) View() string {
	var b strings.Builder

	rows := e.textRows()
	lines := strings.Split(string(e.Text), "\n")
	cx, cy := e.calcXY(e.Cursor)

	for row := e.RowOff; row < e.RowOff+rows; row++ {
		if row < len(lines) {
			b.WriteString(e.renderLine([]rune(lines[row]), row == cy-1, cx-1))
		}
		b.WriteString("\n")
	}

	if e.ShowMsg && time.Now().After(e.statusUntil) {
		e.ShowMsg = false
	}

	if e.ShowMsg {
		b.WriteString(e.StatusMsg)
	} else {
		b.WriteString(e.positions())
	}

	return b.String()
}

// renderLine renders the visible columns of line, highlighting the cursor if it is on this line.
func (e *Editor) renderLine(line []rune, hasCursor bool, cursorCol int) string {
	var b strings.Builder

	col := 0
	drawn := false
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if col >= e.ColOff && (e.Width <= 0 || col+w <= e.ColOff+e.Width) {
			if hasCursor && col == cursorCol {
				b.WriteString(e.cursorStyle.Sprint(string(r)))
				drawn = true
			} else {
				b.WriteRune(r)
			}
		}
		col += w
	}

	// The cursor sits past the last character of the line.
	if hasCursor && !drawn {
		b.WriteString(e.cursorStyle.Sprint(" "))
	}

	return b.String()
}

// positions shows the positions with other details.
func (e *Editor) positions() string {
	x, y := e.calcXY(e.Cursor)
	str := fmt.Sprintf("x=%d, y=%d, cursor=%d, len(text)=%d", x, y, e.Cursor, len(e.Text))
	if len(e.Users) > 0 {
		str += ", users=" + strings.Join(e.Users, ",")
	}
	return str
}

// MoveCursor moves the cursor horizontally by x runes, or vertically by one line in the direction of y.
func (e *Editor) MoveCursor(x, y int) {
	if len(e.Text) == 0 {
		e.Cursor = 0
		return
	}

	// Move cursor horizontally.
	newCursor := e.Cursor + x

	// Move cursor vertically.
	if y > 0 {
		newCursor = e.calcCursorDown()
	}

	if y < 0 {
		newCursor = e.calcCursorUp()
	}

	e.Cursor = newCursor
	e.clampCursor()
	e.scroll()
}

// lineStart returns the index of the first rune of the line containing index.
func (e *Editor) lineStart(index int) int {
	for index > 0 && e.Text[index-1] != '\n' {
		index--
	}
	return index
}

// lineEnd returns the index of the newline ending the line containing index, or len(Text).
func (e *Editor) lineEnd(index int) int {
	for index < len(e.Text) && e.Text[index] != '\n' {
		index++
	}
	return index
}

// calcCursorUp calculates the intended Cursor position after moving the Cursor up one line.
// The column is kept when the previous line is long enough, otherwise the cursor goes to its end.
// On the first line, the cursor moves to the beginning of the Text.
func (e *Editor) calcCursorUp() int {
	start := e.lineStart(e.Cursor)
	if start == 0 {
		return 0
	}

	offset := e.Cursor - start
	prevStart := e.lineStart(start - 1)
	prevLen := start - 1 - prevStart

	return prevStart + min(offset, prevLen)
}

// calcCursorDown calculates the intended Cursor position after moving the Cursor down one line.
// On the last line, the cursor moves to the end of the Text.
func (e *Editor) calcCursorDown() int {
	start := e.lineStart(e.Cursor)
	end := e.lineEnd(e.Cursor)
	if end == len(e.Text) {
		return len(e.Text)
	}

	offset := e.Cursor - start
	nextStart := end + 1
	nextLen := e.lineEnd(nextStart) - nextStart

	return nextStart + min(offset, nextLen)
}

// calcXY calculates Cursor position from the index obtained from the content.
// Both coordinates start at 1; x is measured in cells.
func (e *Editor) calcXY(index int) (int, int) {
	x := 1
	y := 1

	if index < 0 {
		return x, y
	}

	if index > len(e.Text) {
		index = len(e.Text)
	}

	for i := 0; i < index; i++ {
		if e.Text[i] == rune('\n') {
			x = 1
			y++
		} else {
			x = x + runewidth.RuneWidth(e.Text[i])
		}
	}
	return x, y
}

// textRows is the number of rows available for text; the last row is the status bar.
func (e *Editor) textRows() int {
	if e.Height <= 1 {
		return 1
	}
	return e.Height - 1
}

// scroll updates the offsets so that the cursor stays visible.
func (e *Editor) scroll() {
	if !e.scrollEnabled {
		return
	}

	x, y := e.calcXY(e.Cursor)
	col, row := x-1, y-1

	if row < e.RowOff {
		e.RowOff = row
	}
	if rows := e.textRows(); row >= e.RowOff+rows {
		e.RowOff = row - rows + 1
	}

	if col < e.ColOff {
		e.ColOff = col
	}
	if e.Width > 0 && col >= e.ColOff+e.Width {
		e.ColOff = col - e.Width + 1
	}
}

// clampCursor keeps the cursor within the text.
func (e *Editor) clampCursor() {
	if e.Cursor > len(e.Text) {
		e.Cursor = len(e.Text)
	}
	if e.Cursor < 0 {
		e.Cursor = 0
	}
}
