package main

import (
	"flag"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/folio/internal/choreo"
	"github.com/ivlev/folio/internal/content"
)

func main() {
	contentPtr := flag.String("content", "", "Content YAML (default: built-in)")
	scenarioPtr := flag.String("scenario", "", "Choreography YAML (default: built-in)")
	widthPtr := flag.Float64("width", 1440, "Viewport width, px")
	heightPtr := flag.Float64("height", 900, "Viewport height, px")
	flag.Parse()

	c := content.Default()
	if *contentPtr != "" {
		var err error
		if c, err = content.Load(*contentPtr); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}
	sc, err := loadScenario(*scenarioPtr)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	s, err := newSim(c, sc, *widthPtr, *heightPtr)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	defer s.close()
	s.onReload = func() {
		sc, err := loadScenario(*scenarioPtr)
		if err != nil {
			s.logf("[!] reload: %v", err)
			return
		}
		s.reload(sc)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("[-] terminal: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("[-] terminal: %v", err)
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	const frame = 16 * time.Millisecond
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !s.handle(ev, screen) {
				return
			}
		case <-ticker.C:
			s.tick(frame)
			s.draw(screen)
		}
	}
}

func loadScenario(path string) (*choreo.Scenario, error) {
	if path == "" {
		return choreo.DefaultScenario(), nil
	}
	return choreo.ReadScenario(path)
}
