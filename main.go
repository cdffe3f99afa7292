// ABOUTME: Entry point for the Storyglow narrate player
// ABOUTME: Parses CLI flags and plays a personalized story with TUI controls
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/charmbracelet/log"

	"github.com/Storyglow-Audio/narrate-go/internal/lookup"
	"github.com/Storyglow-Audio/narrate-go/internal/ui"
	"github.com/Storyglow-Audio/narrate-go/internal/version"
	"github.com/Storyglow-Audio/narrate-go/pkg/narrate"
)

var (
	storyURL   = flag.String("story", "", "Base narration track URL (required)")
	title      = flag.String("title", "", "Story display title")
	pointsFlag = flag.String("points", "", "Splice points, e.g. '4200:child,9000:pet' (ms:kind)")
	childClip  = flag.String("child-clip", "", "Child name clip URL")
	petClip    = flag.String("pet-clip", "", "Pet name clip URL")
	profileID  = flag.String("profile", "", "Profile ID for clip lookup")
	lookupAddr = flag.String("lookup", "", "Clip lookup service address (host:port)")
	volume     = flag.Int("volume", 100, "Initial volume (0-100)")
	sampleRate = flag.Int("sample-rate", 48000, "Output sample rate")
	logFile    = flag.String("log-file", "narrate-player.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, play once and exit")
)

func main() {
	flag.Parse()

	if *storyURL == "" {
		fmt.Fprintln(os.Stderr, "usage: narrate-player -story <url> [-points 4200:child] ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("error opening log file", "err", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI owns the terminal; log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	log.Info("starting player",
		"product", version.Product, "version", version.Version)

	points, err := parseSplicePoints(*pointsFlag)
	if err != nil {
		log.Fatal("invalid -points", "err", err)
	}

	ctx := context.Background()

	clips := narrate.NameClips{ChildURL: *childClip, PetURL: *petClip}
	var lookupClient *lookup.Client
	if *profileID != "" && *lookupAddr != "" {
		lookupClient = lookup.NewClient(lookup.Config{ServerAddr: *lookupAddr})
		resolved, err := lookupClient.ResolveClips(ctx, *profileID)
		if err != nil {
			log.Warn("clip lookup failed, playing without name clips", "err", err)
		} else {
			if clips.ChildURL == "" {
				clips.ChildURL = resolved.ChildURL
			}
			if clips.PetURL == "" {
				clips.PetURL = resolved.PetURL
			}
		}
	}

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(storyTitle(), ctrl)
		if err != nil {
			log.Fatal("failed to start TUI", "err", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	done := make(chan struct{}, 1)

	narrator, err := narrate.New(narrate.Config{
		SampleRate: *sampleRate,
		Volume:     *volume,
		OnStateChange: func(state narrate.State) {
			updateTUI(ui.StatusMsg{State: state.String()})
			if state == narrate.StateCompleted || state == narrate.StateErrored {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		},
		OnProgress: func(p float64) {
			updateTUI(ui.StatusMsg{Progress: &p})
		},
		OnError: func(err error) {
			log.Error("playback error", "err", err)
			updateTUI(ui.StatusMsg{Err: err})
		},
	})
	if err != nil {
		log.Fatal("failed to open audio output", "err", err)
	}

	// Warm the cache as freshly generated clips become available
	if lookupClient != nil {
		if err := lookupClient.Subscribe(); err != nil {
			log.Warn("clip event subscription failed", "err", err)
		} else {
			go prefetchLoop(ctx, narrator, lookupClient)
		}
		defer lookupClient.Close()
	}

	if err := narrator.Play(ctx, *storyURL, points, clips); err != nil {
		log.Error("playback failed to start", "err", err)
		if !useTUI {
			narrator.Close()
			os.Exit(1)
		}
	}

	quit := make(chan struct{})
	if ctrl != nil {
		go handleControls(ctx, narrator, ctrl, points, clips, quit)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		select {
		case <-quit:
			log.Info("quit requested from TUI")
		case <-sigChan:
			log.Info("shutdown signal received")
		}
		if tuiProg != nil {
			tuiProg.Quit()
		}
	} else {
		select {
		case <-done:
			log.Info("playback finished")
		case <-sigChan:
			log.Info("shutdown signal received")
		}
	}

	if err := narrator.Close(); err != nil {
		log.Error("error closing player", "err", err)
	}

	log.Info("player stopped")
}

func storyTitle() string {
	if *title != "" {
		return *title
	}
	return *storyURL
}

// parseSplicePoints parses "4200:child,9000:pet" into splice points.
func parseSplicePoints(s string) ([]narrate.SplicePoint, error) {
	if s == "" {
		return nil, nil
	}

	var points []narrate.SplicePoint
	for _, part := range strings.Split(s, ",") {
		tsStr, kind, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("malformed splice point %q, want ms:kind", part)
		}

		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil || ts < 0 {
			return nil, fmt.Errorf("bad timestamp in %q", part)
		}

		var ph narrate.Placeholder
		switch kind {
		case "child":
			ph = narrate.PlaceholderChild
		case "pet":
			ph = narrate.PlaceholderPet
		default:
			return nil, fmt.Errorf("unknown placeholder %q, want child or pet", kind)
		}

		points = append(points, narrate.SplicePoint{TimestampMs: ts, Placeholder: ph})
	}
	return points, nil
}

// handleControls processes transport commands from the TUI.
func handleControls(ctx context.Context, narrator *narrate.Narrator, ctrl *ui.Control, points []narrate.SplicePoint, clips narrate.NameClips, quit chan struct{}) {
	for msg := range ctrl.Commands {
		switch msg.Command {
		case ui.CmdTogglePause:
			if narrator.Status().IsPaused {
				narrator.Resume()
			} else {
				narrator.Pause()
			}
		case ui.CmdStop:
			narrator.Stop()
		case ui.CmdPlay:
			if err := narrator.Play(ctx, *storyURL, points, clips); err != nil {
				log.Error("replay failed", "err", err)
			}
		case ui.CmdVolume:
			narrator.SetVolume(msg.Volume)
		case ui.CmdMute:
			narrator.SetMuted(msg.Muted)
		case ui.CmdQuit:
			close(quit)
			return
		}
	}
}

// prefetchLoop warms the buffer cache for clips as they become ready.
func prefetchLoop(ctx context.Context, narrator *narrate.Narrator, client *lookup.Client) {
	for ev := range client.ClipReady {
		log.Debug("prefetching ready clip", "kind", ev.Kind, "url", ev.URL)
		if err := narrator.Prefetch(ctx, ev.URL); err != nil {
			log.Warn("clip prefetch failed", "url", ev.URL, "err", err)
		}
	}
}
