package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/folio/internal/choreo"
	"github.com/ivlev/folio/internal/content"
)

func newTestSim(t *testing.T) *sim {
	t.Helper()
	s, err := newSim(content.Default(), choreo.DefaultScenario(), 1440, 900)
	if err != nil {
		t.Fatalf("newSim: %v", err)
	}
	t.Cleanup(s.close)
	return s
}

func TestSimToggle(t *testing.T) {
	s := newTestSim(t)
	before := s.doc.Observers()
	if before == 0 {
		t.Fatal("no scroll observers after mount")
	}

	s.toggle(0)
	if s.page.Sections()[0].Visible() {
		t.Fatal("section still visible after toggle")
	}
	if s.doc.Observers() > before {
		t.Errorf("observers grew after hide: %d > %d", s.doc.Observers(), before)
	}
	s.toggle(0)
	if !s.page.Sections()[0].Visible() {
		t.Fatal("section not shown again")
	}
	if s.doc.Observers() != before {
		t.Errorf("observers = %d after remount, want %d", s.doc.Observers(), before)
	}

	// out of range is ignored
	s.toggle(-1)
	s.toggle(99)
}

func TestSimScrollDrivesRows(t *testing.T) {
	s := newTestSim(t)
	s.tick(5 * time.Second)
	s.doc.ScrollTo(s.doc.Height())
	for i := 0; i < 400; i++ {
		s.tick(16 * time.Millisecond)
	}
	if !s.nav.Scrolled() {
		t.Error("nav state not scrolled at the bottom")
	}
	rows := s.rows()
	if len(rows) == 0 {
		t.Fatal("no animated rows")
	}
	found := false
	for _, r := range rows {
		if strings.Contains(r, ".stat-number") && strings.Contains(r, "= 8") {
			found = true
		}
	}
	if !found {
		t.Errorf("counter row missing from:\n%s", strings.Join(rows, "\n"))
	}
}

func TestSimKeys(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(120, 40)

	s := newTestSim(t)
	key := func(r rune) bool {
		return s.handle(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone), screen)
	}

	key('j')
	if got := s.doc.ScrollY(); got != 40 {
		t.Errorf("after j: y = %v, want 40", got)
	}
	key('G')
	if s.doc.ScrollY() == 40 {
		t.Error("G did not scroll to the bottom")
	}
	key('g')
	if s.doc.ScrollY() != 0 {
		t.Errorf("after g: y = %v", s.doc.ScrollY())
	}

	reloaded := false
	s.onReload = func() { reloaded = true }
	key('r')
	if !reloaded {
		t.Error("r did not reload")
	}

	cur := s.current()
	if cur < 0 {
		t.Fatal("no section under the viewport at the top")
	}
	key('h')
	if s.page.Sections()[cur].Visible() {
		t.Error("h did not hide the section under the viewport")
	}

	if key('q') {
		t.Error("q should stop the loop")
	}
	if s.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), screen) {
		t.Error("Esc should stop the loop")
	}

	s.draw(screen)
	cells, w, _ := screen.GetContents()
	var top strings.Builder
	for x := 0; x < w; x++ {
		top.WriteString(string(cells[x].Runes))
	}
	if !strings.HasPrefix(top.String(), "y ") {
		t.Errorf("header = %q", top.String())
	}
}
