package main

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/folio/internal/choreo"
	"github.com/ivlev/folio/internal/content"
	"github.com/ivlev/folio/internal/dom"
)

const maxLog = 200

// sim drives the built-in page headlessly: a document built from the
// content outline with every section mounted on it.
type sim struct {
	doc      *dom.Document
	page     *choreo.Page
	nav      *choreo.ScrollState
	offset   int // first element row shown
	onReload func()

	mu   sync.Mutex
	logs []string
}

func newSim(c *content.Content, sc *choreo.Scenario, w, h float64) (*sim, error) {
	s := &sim{doc: c.Document(w, h), page: choreo.NewPage(sc)}
	for _, sec := range s.page.Sections() {
		sec.Logf = s.logf
	}
	n := s.page.Mount(s.doc, s.doc)
	s.logf("[*] %d rules mounted over a %.0fpx page", n, s.doc.Height())

	nav, err := choreo.WatchScroll(s.doc, func(v bool) { s.logf("[*] nav scrolled: %v", v) })
	if err != nil {
		s.page.Unmount()
		s.doc.Close()
		return nil, err
	}
	s.nav = nav
	return s, nil
}

func (s *sim) logf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, fmt.Sprintf(format, args...))
	if len(s.logs) > maxLog {
		s.logs = s.logs[len(s.logs)-maxLog:]
	}
}

func (s *sim) lastLogs(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) < n {
		n = len(s.logs)
	}
	return append([]string(nil), s.logs[len(s.logs)-n:]...)
}

func (s *sim) scroll(dy float64) { s.doc.ScrollBy(dy) }

func (s *sim) tick(dt time.Duration) { s.doc.Advance(dt) }

// toggle shows or hides section i of the page.
func (s *sim) toggle(i int) {
	secs := s.page.Sections()
	if i < 0 || i >= len(secs) {
		return
	}
	sec := secs[i]
	if sec.Visible() {
		sec.Hide()
		s.logf("[*] %s hidden", sec.ID)
		return
	}
	n := sec.Show(s.doc, s.doc)
	s.logf("[*] %s shown, %d rules", sec.ID, n)
}

// current returns the index of the section under the middle of the
// viewport, or -1.
func (s *sim) current() int {
	mid := s.doc.ScrollY() + s.doc.ViewportHeight()/2
	for i, sec := range s.page.Sections() {
		el := s.doc.ByID(sec.ID)
		if el == nil {
			continue
		}
		b := el.Bounds()
		if mid >= b.Y && mid < b.Y+b.H {
			return i
		}
	}
	return -1
}

// reload swaps the scenario on every visible section.
func (s *sim) reload(sc *choreo.Scenario) {
	s.page.Reload(sc, s.doc, s.doc)
	s.logf("[+] choreography reloaded")
}

func (s *sim) close() {
	s.nav.Close()
	s.page.Unmount()
	s.doc.Close()
}

func (s *sim) header() string {
	nav := "top"
	if s.nav.Scrolled() {
		nav = "scrolled"
	}
	return fmt.Sprintf("y %5.0f / %5.0f  observers %3d  frames %d  rules %3d  nav %s",
		s.doc.ScrollY(), s.doc.Height()-s.doc.ViewportHeight(), s.doc.Observers(), s.doc.Frames(), s.page.Active(), nav)
}

func (s *sim) sections() string {
	var b strings.Builder
	for i, sec := range s.page.Sections() {
		mark := "-"
		if sec.Visible() {
			mark = "+"
		}
		fmt.Fprintf(&b, "%d%s%s ", i+1, mark, sec.ID)
	}
	return b.String()
}

// rows describes every element that currently carries animated state.
func (s *sim) rows() []string {
	var out []string
	for _, el := range s.doc.Elements() {
		props := el.Props()
		counter := el.Attr("data-value") != ""
		if len(props) == 0 && !counter {
			continue
		}
		op := el.Value(choreo.Opacity)
		line := fmt.Sprintf("%-32s %s op %.2f", truncate(el.String(), 32), bar(op, 10), op)
		for _, p := range []choreo.Property{choreo.Y, choreo.X, choreo.Scale, choreo.Width, choreo.DashOffset} {
			if v, ok := props[p]; ok && v != choreo.Resting(p) {
				line += fmt.Sprintf(" %s %.1f", p, v)
			}
		}
		if counter {
			line += " = " + el.Text()
		}
		out = append(out, line)
	}
	return out
}

func bar(v float64, width int) string {
	n := int(math.Round(math.Max(0, math.Min(1, v)) * float64(width)))
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

var (
	styleHeader = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleRow    = tcell.StyleDefault
	styleLog    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHelp   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

const help = "j/k scroll  J/K page  g/G ends  h/1-9 toggle section  r reload  [ ] list  q quit"

func (s *sim) draw(screen tcell.Screen) {
	screen.Clear()
	w, h := screen.Size()
	put(screen, 0, 0, w, s.header(), styleHeader)
	put(screen, 0, 1, w, s.sections(), styleHeader)

	logRows := 5
	rows := s.rows()
	avail := h - 3 - logRows - 1
	if s.offset > len(rows)-1 {
		s.offset = max(0, len(rows)-1)
	}
	for i := 0; i < avail && s.offset+i < len(rows); i++ {
		put(screen, 0, 3+i, w, rows[s.offset+i], styleRow)
	}
	for i, l := range s.lastLogs(logRows) {
		put(screen, 0, h-1-logRows+i, w, l, styleLog)
	}
	put(screen, 0, h-1, w, help, styleHelp)
	screen.Show()
}

func put(screen tcell.Screen, x, y, w int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= w {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// handle applies one input event and reports whether to keep running.
func (s *sim) handle(ev tcell.Event, screen tcell.Screen) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyDown:
			s.scroll(40)
		case tcell.KeyUp:
			s.scroll(-40)
		case tcell.KeyPgDn:
			s.scroll(s.doc.ViewportHeight())
		case tcell.KeyPgUp:
			s.scroll(-s.doc.ViewportHeight())
		case tcell.KeyRune:
			switch r := ev.Rune(); {
			case r == 'q':
				return false
			case r == 'j':
				s.scroll(40)
			case r == 'k':
				s.scroll(-40)
			case r == 'J':
				s.scroll(s.doc.ViewportHeight())
			case r == 'K':
				s.scroll(-s.doc.ViewportHeight())
			case r == 'h':
				s.toggle(s.current())
			case r == 'r':
				if s.onReload != nil {
					s.onReload()
				}
			case r == 'g':
				s.doc.ScrollTo(0)
			case r == 'G':
				s.doc.ScrollTo(s.doc.Height())
			case r == ']':
				s.offset++
			case r == '[':
				s.offset = max(0, s.offset-1)
			case r >= '1' && r <= '9':
				s.toggle(int(r - '1'))
			}
		}
	case *tcell.EventResize:
		screen.Sync()
	}
	return true
}
