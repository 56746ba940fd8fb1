// chatmux - a terminal chat client for multiple AI models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/chatmux/internal/config"
	"github.com/jeranaias/chatmux/internal/store"
	"github.com/jeranaias/chatmux/internal/transport"
	"github.com/jeranaias/chatmux/internal/ui/chat"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		threadID    = flag.String("thread", "", "resume an existing thread by id")
		listThreads = flag.Bool("threads", false, "list stored threads and exit")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chatmux %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving data dir: %v\n", err)
		os.Exit(1)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *listThreads {
		printThreads(st)
		return
	}

	// The TUI owns stdout, so logging goes to a file in the data dir.
	if logPath, err := cfg.LogPath(); err == nil {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			defer f.Close()
			log.SetOutput(f)
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "chatmux requires an interactive terminal")
		os.Exit(1)
	}

	if !cfg.HasAnyKey() {
		fmt.Fprintln(os.Stderr, "No API keys configured.")
		path, _ := config.ConfigPath()
		fmt.Fprintf(os.Stderr, "Add one to %s or set CHATMUX_OPENROUTER_API_KEY,\n", path)
		fmt.Fprintln(os.Stderr, "CHATMUX_GOOGLE_API_KEY, or CHATMUX_OPENAI_API_KEY.")
		os.Exit(1)
	}

	log.Printf("chatmux %s starting (profile=%v)", Version, termenv.ColorProfile())

	// Key presence re-gates the model picker when the config file changes
	// while the app runs.
	var reloads <-chan *config.Config
	if cfgPath, err := config.ConfigPath(); err == nil {
		if watcher, err := config.Watch(cfgPath); err == nil {
			defer watcher.Close()
			reloads = watcher.C()
		} else {
			log.Printf("config watcher unavailable: %v", err)
		}
	}

	model := chat.New(chat.Options{
		Store:         st,
		Client:        transport.NewClient(),
		Config:        cfg,
		Theme:         styles.NewTheme(),
		ThreadID:      *threadID,
		ConfigReloads: reloads,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printThreads lists stored threads, most recently active first.
func printThreads(st *store.Store) {
	threads, err := st.ListThreads()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing threads: %v\n", err)
		os.Exit(1)
	}
	if len(threads) == 0 {
		fmt.Println("No threads yet.")
		return
	}
	for _, th := range threads {
		title := th.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", th.ID, th.LastMessageAt.Format("2006-01-02 15:04"), title)
	}
}
