// Package gateway wires the event sources to the decision core and runs
// the two processing paths: the chat loop and the HTTP/cron trigger path.
// The paths run concurrently; each processes its own events in arrival
// order, one at a time.
package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Alpha200/ha-ai-tasker/internal/assembler"
	"github.com/Alpha200/ha-ai-tasker/internal/bus"
	"github.com/Alpha200/ha-ai-tasker/internal/channel"
	"github.com/Alpha200/ha-ai-tasker/internal/config"
	"github.com/Alpha200/ha-ai-tasker/internal/cron"
	"github.com/Alpha200/ha-ai-tasker/internal/filter"
	"github.com/Alpha200/ha-ai-tasker/internal/homeassistant"
	"github.com/Alpha200/ha-ai-tasker/internal/memory"
	"github.com/Alpha200/ha-ai-tasker/internal/orchestrator"
	"github.com/Alpha200/ha-ai-tasker/internal/server"
	"github.com/Alpha200/ha-ai-tasker/internal/session"
)

// MemoryBackend is the slice of the memory adapter the gateway wires into
// the assembler and orchestrator.
type MemoryBackend interface {
	Read(ctx context.Context, kind memory.Kind) memory.ReadResult
	Write(ctx context.Context, entry memory.Entry) memory.WriteResult
	Close() error
}

// Options for creating a Gateway with injected collaborators (for testing).
type Options struct {
	RuntimeFactory orchestrator.RuntimeFactory
	Channel        channel.Channel
	Memory         MemoryBackend
	SignalChan     chan os.Signal
}

type Gateway struct {
	cfg     *config.Config
	bus     *bus.MessageBus
	state   *session.State
	history *session.History
	mem     MemoryBackend
	asm     *assembler.Assembler
	orch    *orchestrator.Orchestrator
	runtime orchestrator.Runtime
	chat    channel.Channel
	httpSrv *server.Server
	cron    *cron.Service

	// triggerMu serializes the HTTP/cron path; the chat path is serialized
	// by its single loop goroutine.
	triggerMu  sync.Mutex
	signalChan chan os.Signal
}

// New creates a Gateway with default options.
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing.
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)
	g.state = session.NewState("", cfg.Chat.RoomID, time.Now())
	g.history = session.NewHistory(session.DefaultHistorySize)

	// Memory backend; an empty endpoint degrades instead of failing startup
	if opts.Memory != nil {
		g.mem = opts.Memory
	} else {
		g.mem = memory.NewAdapter(cfg.Backends.MemoryURL)
	}

	var weather assembler.WeatherProvider
	var calendar assembler.CalendarProvider
	var location assembler.LocationProvider
	if cfg.Home.BaseURL != "" {
		ha := homeassistant.NewClient(cfg.Home.BaseURL, cfg.Home.Token,
			cfg.Home.WeatherEntity, cfg.Home.CalendarEntity, cfg.Home.PersonEntity)
		weather, calendar, location = ha, ha, ha
	}
	g.asm = assembler.New(g.mem, weather, calendar, location,
		time.Duration(config.DefaultCollaboratorTimeoutSec)*time.Second)

	factory := opts.RuntimeFactory
	if factory == nil {
		factory = orchestrator.DefaultRuntimeFactory
	}
	runtime, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	g.runtime = runtime

	g.orch = orchestrator.New(runtime, g.state, g.mem, g.bus.Outbound,
		time.Duration(cfg.Agent.DecisionTimeoutSec)*time.Second)

	if opts.Channel != nil {
		g.chat = opts.Channel
	} else if cfg.Chat.Enabled {
		ch, err := channel.NewTelegramChannel(cfg.Chat, g.bus)
		if err != nil {
			return nil, fmt.Errorf("init chat channel: %w", err)
		}
		g.chat = ch
	}

	g.httpSrv = server.New(cfg.Gateway.Host, cfg.Gateway.Port, g)

	cronStorePath := filepath.Join(config.ConfigDir(), "data", "cron", "jobs.json")
	g.cron = cron.NewService(cronStorePath)
	g.cron.OnJob = func(job cron.Job) error {
		outcome := g.ProcessTrigger(context.Background(), job.Payload.Message)
		log.Printf("[gateway] scheduled trigger %s: %s", job.Name, outcome.Kind)
		return nil
	}

	g.signalChan = opts.SignalChan

	return g, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if g.chat != nil {
		if err := g.chat.Start(ctx); err != nil {
			return fmt.Errorf("start chat channel: %w", err)
		}
		g.state.SetOwnID(g.chat.OwnID())
		g.bus.SubscribeOutbound(g.chat.Name(), func(msg bus.OutboundMessage) {
			if err := g.chat.Send(msg); err != nil {
				log.Printf("[gateway] send to %s failed: %v", g.chat.Name(), err)
			}
		})
		log.Printf("[gateway] chat channel started: %s (own id %s)", g.chat.Name(), g.state.OwnID())
	}

	if err := g.httpSrv.Start(ctx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}
	if err := g.ensurePeriodicJob(); err != nil {
		log.Printf("[gateway] ensure periodic job warning: %v", err)
	}

	go g.chatLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

// chatLoop drains inbound chat messages strictly in arrival order. No two
// events for the room are ever decided concurrently.
func (g *Gateway) chatLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			g.handleChatMessage(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) handleChatMessage(ctx context.Context, msg bus.ChatMessage) {
	verdict := filter.Admit(msg, g.state)
	if !verdict.Admitted {
		if verdict.Reason == filter.ReasonSelfAuthored {
			// Own echoes stay part of the conversation history
			g.history.Append(session.HistoryEntry{
				Sender:    msg.SenderID,
				Message:   msg.Text,
				Timestamp: msg.Timestamp,
			})
		}
		log.Printf("[gateway] chat message rejected (%s)", verdict.Reason)
		return
	}

	log.Printf("[gateway] inbound from %s: %s", msg.SenderID, truncate(msg.Text, 80))
	g.history.Append(session.HistoryEntry{
		Sender:    msg.SenderID,
		Message:   msg.Text,
		Timestamp: msg.Timestamp,
	})

	trigger := msg.Trigger()
	dctx := g.asm.Assemble(ctx, trigger)

	outcome, state := g.orch.Process(ctx, orchestrator.Request{
		Trigger: trigger,
		Context: dctx,
		Mode:    orchestrator.ModeChat,
		History: g.history.Format(g.cfg.Chat.SystemUsername),
	})

	if state == orchestrator.StateDispatched && outcome.Kind == orchestrator.ReplyText {
		// Telegram does not echo the bot's own sends back through polling,
		// so the reply is recorded here instead of via the self path.
		g.history.Append(session.HistoryEntry{
			Sender:    g.state.OwnID(),
			Message:   outcome.Text,
			Timestamp: time.Now(),
		})
	}
	log.Printf("[gateway] chat event finished: state=%s outcome=%s", state, outcome.Kind)
}

// ProcessTrigger runs one HTTP- or cron-sourced trigger through the core.
// Calls are serialized; each trigger is processed at most once.
func (g *Gateway) ProcessTrigger(ctx context.Context, payload string) orchestrator.Outcome {
	g.triggerMu.Lock()
	defer g.triggerMu.Unlock()

	trigger := bus.TriggerEvent{
		Source:     bus.SourceHTTP,
		Payload:    payload,
		OccurredAt: time.Now(),
	}
	dctx := g.asm.Assemble(ctx, trigger)

	outcome, state := g.orch.Process(ctx, orchestrator.Request{
		Trigger: trigger,
		Context: dctx,
		Mode:    orchestrator.ModeAutonomous,
	})
	log.Printf("[gateway] trigger finished: state=%s outcome=%s", state, outcome.Kind)
	return outcome
}

// Summarize generates a context summary in the requested language.
func (g *Gateway) Summarize(ctx context.Context, lang string) orchestrator.Outcome {
	g.triggerMu.Lock()
	defer g.triggerMu.Unlock()

	trigger := bus.TriggerEvent{
		Source:     bus.SourceHTTP,
		OccurredAt: time.Now(),
	}
	dctx := g.asm.Assemble(ctx, trigger)

	outcome, state := g.orch.Process(ctx, orchestrator.Request{
		Trigger: trigger,
		Context: dctx,
		Mode:    orchestrator.ModeSummary,
		Lang:    lang,
	})
	log.Printf("[gateway] summary finished: state=%s outcome=%s", state, outcome.Kind)
	return outcome
}

func (g *Gateway) ensurePeriodicJob() error {
	if !g.cfg.Trigger.PeriodicEnabled {
		return nil
	}

	const (
		jobName = "__periodic_check"
		jobMsg  = "Periodic check triggered by schedule."
	)
	for _, job := range g.cron.ListJobs() {
		if job.Name == jobName {
			return nil
		}
	}
	_, err := g.cron.AddJob(jobName,
		cron.Schedule{Kind: "cron", Expr: g.cfg.Trigger.PeriodicExpr},
		cron.Payload{Message: jobMsg})
	return err
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.httpSrv.Stop()
	if g.chat != nil {
		_ = g.chat.Stop()
	}
	if g.mem != nil {
		if err := g.mem.Close(); err != nil {
			log.Printf("[gateway] close memory adapter warning: %v", err)
		}
	}
	if g.runtime != nil {
		g.runtime.Close()
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
