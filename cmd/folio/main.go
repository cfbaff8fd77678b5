package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/folio/internal/config"
	"github.com/ivlev/folio/internal/mailer"
	"github.com/ivlev/folio/internal/resume"
	"github.com/ivlev/folio/internal/site"
	"github.com/ivlev/folio/internal/store"
	"github.com/ivlev/folio/internal/system"
	"github.com/ivlev/folio/internal/watch"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("[!] .env: %v", err)
	}
	env := config.FromEnv()

	addrPtr := flag.String("addr", env.Addr, "Listen address (ADDR, or :PORT)")
	dbPtr := flag.String("db", env.DBPath, "sqlite database for messages and visits")
	scenarioPtr := flag.String("scenario", env.ScenarioPath, "Choreography YAML file or directory (newest file wins); empty for the built-in one")
	contentPtr := flag.String("content", env.ContentPath, "Profile content YAML; empty for the built-in one")
	resumePtr := flag.String("resume-dir", env.ResumeDir, "Directory holding resume PDFs (newest is served)")
	previewPtr := flag.Int("preview-width", env.PreviewWidth, "Resume preview width in pixels")
	trimPtr := flag.Bool("preview-trim", env.PreviewTrim, "Crop page margins from the resume preview")
	watchPtr := flag.Bool("watch", env.Watch, "Reload scenario and content files when they change")
	heroWPtr := flag.Int("hero-width", env.HeroWidth, "Hero background width")
	heroHPtr := flag.Int("hero-height", env.HeroHeight, "Hero background height")
	heroStepsPtr := flag.Int("hero-steps", env.HeroSteps, "Particle steps simulated before rendering the hero background")
	heroSeedPtr := flag.Int64("hero-seed", env.HeroSeed, "Particle field seed")
	versionPtr := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *versionPtr {
		fmt.Println(version)
		return
	}

	cfg := env
	cfg.Addr = *addrPtr
	cfg.DBPath = *dbPtr
	cfg.ScenarioPath = *scenarioPtr
	cfg.ContentPath = *contentPtr
	cfg.ResumeDir = *resumePtr
	cfg.PreviewWidth = *previewPtr
	cfg.PreviewTrim = *trimPtr
	cfg.Watch = *watchPtr
	cfg.HeroWidth, cfg.HeroHeight = *heroWPtr, *heroHPtr
	cfg.HeroSteps, cfg.HeroSeed = *heroStepsPtr, *heroSeedPtr
	cfg.BuildVersion = version

	system.InitResourceLimits()
	gin.SetMode(cfg.GinMode)

	if err := os.MkdirAll(cfg.ResumeDir, 0755); err != nil {
		log.Printf("[!] resume directory: %v", err)
	}

	st, err := store.Open(cfg.DBPath, cfg.VisitSalt)
	if err != nil {
		log.Fatalf("[-] Database: %v", err)
	}
	defer st.Close()

	m := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.ToEmail)
	if !m.Configured() {
		log.Printf("[*] SMTP_USER/SMTP_PASS unset: contact messages are stored only")
	}
	if cfg.AdminToken == "" {
		log.Printf("[*] ADMIN_TOKEN unset: admin routes disabled")
	}

	lib := resume.NewLibrary(cfg.ResumeDir, cfg.PreviewWidth)
	if cfg.PreviewTrim {
		lib.Trim = resume.NewTrimmer()
	}

	srv, err := site.New(site.Options{
		Store:        st,
		Mailer:       m,
		Resume:       lib,
		ScenarioPath: cfg.ScenarioPath,
		ContentPath:  cfg.ContentPath,
		AdminToken:   cfg.AdminToken,
		Hero: site.HeroOptions{
			Width: cfg.HeroWidth, Height: cfg.HeroHeight,
			Steps: cfg.HeroSteps, Seed: cfg.HeroSeed,
		},
		Version: cfg.BuildVersion,
	})
	if err != nil {
		log.Fatalf("[-] Site: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Printf("[*] Listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if cfg.Watch {
		if files := srv.WatchedFiles(); len(files) > 0 {
			w, err := watch.New(files...)
			if err != nil {
				log.Fatalf("[-] Watch: %v", err)
			}
			log.Printf("[*] Watching %v", files)
			g.Go(func() error { return w.Run(ctx, srv.Changed) })
		} else {
			log.Printf("[!] -watch set but no scenario or content file given")
		}
	}

	g.Go(func() error {
		prune := func() {
			if n, err := st.Prune(ctx, cfg.VisitKeep); err != nil {
				log.Printf("[!] %v", err)
			} else if n > 0 {
				log.Printf("[*] Removed %d visits older than %s", n, cfg.VisitKeep)
			}
		}
		prune()
		t := time.NewTicker(24 * time.Hour)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				prune()
			case <-ctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("[-] %v", err)
	}
	srv.Wait()
	log.Printf("[+] Stopped")
}
