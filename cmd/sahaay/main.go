package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/sahaay/internal/agent"
	"github.com/rahul/sahaay/internal/assist"
	"github.com/rahul/sahaay/internal/browser"
	"github.com/rahul/sahaay/internal/conversation"
	"github.com/rahul/sahaay/internal/gateway"
	"github.com/rahul/sahaay/internal/governance"
	"github.com/rahul/sahaay/internal/knowledge"
	"github.com/rahul/sahaay/internal/observability"
	"github.com/rahul/sahaay/internal/orchestrator"
	"github.com/rahul/sahaay/internal/store"
	"github.com/rahul/sahaay/internal/stt"
	"github.com/rahul/sahaay/pkg/config"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")
	logger := observability.NewLogger()

	// Persistence (transcript archiver)
	var archiver conversation.Archiver
	var listSaved func() ([]string, error)
	switch cfg.Storage.Type {
	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = "data/sahaay.db"
		}
		db, err := store.NewSQLiteArchiver(path)
		if err != nil {
			log.Fatalf("failed to open transcript database: %v", err)
		}
		defer db.Close()
		archiver = db
		listSaved = func() ([]string, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.ListConversations(ctx)
		}
	case "file":
		dir := cfg.Storage.Path
		if dir == "" {
			dir = "data/transcripts"
		}
		files, err := store.NewFileArchiver(dir)
		if err != nil {
			log.Fatalf("failed to prepare transcript directory: %v", err)
		}
		archiver = files
		listSaved = files.List
	case "none", "":
		// No durable transcripts; SaveNow and auto-save become no-ops.
	default:
		log.Fatalf("unknown storage type %q", cfg.Storage.Type)
	}

	states := conversation.NewManager(archiver, cfg.Storage.SaveEvery, logger)

	// Initialize LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	var err error
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	planner := agent.NewPlanner(llm, agent.LoadSystemPrompt(cfg.App.SystemPromptPath), logger)

	// Lookup resolver: the mode is an explicit choice, never a fallback.
	var lookup orchestrator.LookupResolver
	switch cfg.Knowledge.Mode {
	case "local":
		lookup, err = knowledge.NewBase(cfg.Knowledge.BasePath, cfg.Knowledge.PoliciesPath)
		if err != nil {
			log.Fatalf("failed to load knowledge base: %v", err)
		}
	case "demo":
		lookup = knowledge.NewDemoBase()
	case "web":
		lookup, err = knowledge.NewWebSearch()
		if err != nil {
			log.Fatalf("failed to initialize web search: %v", err)
		}
	default:
		log.Fatalf("knowledge.mode must be \"local\", \"demo\" or \"web\", got %q", cfg.Knowledge.Mode)
	}

	// Action resolver
	var action orchestrator.ActionResolver
	switch cfg.Browser.Mode {
	case "sim":
		delay := time.Duration(cfg.Browser.SimDelaySeconds) * time.Second
		if delay == 0 {
			delay = 2 * time.Second
		}
		action = browser.NewSimExecutor(delay)
	case "live":
		exec := browser.NewExecutor(browser.Config{
			PortalURL:      cfg.Browser.PortalURL,
			InputSelector:  cfg.Browser.InputSelector,
			SubmitSelector: cfg.Browser.SubmitSelector,
			Headless:       cfg.Browser.Headless,
			Timeout:        time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
			ScreenshotDir:  cfg.Browser.ScreenshotDir,
		})
		defer exec.Close()
		action = exec
	default:
		log.Fatalf("browser.mode must be \"sim\" or \"live\", got %q", cfg.Browser.Mode)
	}

	gov := governance.NewDefaultPolicyEngine()
	// Default safety rules: actions the assistant must never automate
	_ = gov.DenyDescription(`(?i)delete\s+account`)
	_ = gov.DenyDescription(`(?i)wire\s+transfer`)
	_ = gov.DenyDescription(`(?i)change\s+password`)
	action = governance.NewGuardedAction(gov, action)

	orch := orchestrator.New(lookup, action, states)

	// Transcription source
	var source stt.Source
	switch cfg.STT.Mode {
	case "scripted":
		source = stt.NewScripted(nil, time.Duration(cfg.STT.IntervalSeconds)*time.Second)
	case "assemblyai":
		source = stt.NewAssemblyAI(cfg.STT.APIKey, cfg.STT.SampleRate, os.Stdin)
	default:
		log.Fatalf("stt.mode must be \"scripted\" or \"assemblyai\", got %q", cfg.STT.Mode)
	}

	assistant := assist.New(states, planner, orch, source, logger)

	// Optional operator notifications
	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tn, err := gateway.NewTelegramNotifier(tgCfg.Token, tgCfg.ChatID)
		if err != nil {
			log.Printf("Warning: failed to initialize Telegram notifier: %v", err)
		} else {
			states.Subscribe(tn.Listen)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := assistant.StartTranscription(ctx); err != nil {
		log.Fatalf("failed to start transcription: %v", err)
	}

	// Operator UI API
	if cfg.Gateways.HTTP.Enabled {
		addr := cfg.Gateways.HTTP.Addr
		if addr == "" {
			addr = ":7866"
		}
		srv := gateway.NewHTTPServer(addr, states, assistant, states, listSaved)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
				stop()
			}
		}()
		defer srv.Stop()
		log.Printf("Operator API listening on %s", addr)
	}

	// Start Live Resource Dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	assistant.StopTranscription()

	// Flush one final snapshot so nothing said after the last auto-save
	// is lost.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if ref, err := states.SaveNow(saveCtx); err == nil && ref != "" {
		log.Printf("Final transcript saved: %s", ref)
	}
	cancel()

	// Reset terminal aesthetics
	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] SESSION CLOSED. GOODBYE.\033[0m")
}
