// Package orchestrator drives assembled context and trigger payloads
// through the external decision step and dispatches the interpreted
// outcome. A failed event never escapes as an error: every failure path
// converts to NoAction so the processing loops stay alive.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cexll/agentsdk-go/pkg/api"

	"github.com/Alpha200/ha-ai-tasker/internal/assembler"
	"github.com/Alpha200/ha-ai-tasker/internal/bus"
	"github.com/Alpha200/ha-ai-tasker/internal/memory"
	"github.com/Alpha200/ha-ai-tasker/internal/session"
)

// noResponseMarker is the literal the autonomous profile instructs the
// decision step to emit when it chose not to notify the user.
const noResponseMarker = "No response generated"

// MemoryWriter is the slice of the memory adapter used for dispatch.
type MemoryWriter interface {
	Write(ctx context.Context, entry memory.Entry) memory.WriteResult
}

// Request carries everything needed to process one admitted event.
type Request struct {
	Trigger bus.TriggerEvent
	Context *assembler.DecisionContext
	Mode    Mode
	Lang    string // summary mode only
	History string // chat mode only
}

type Orchestrator struct {
	runtime         Runtime
	session         *session.State
	mem             MemoryWriter
	outbound        chan<- bus.OutboundMessage
	decisionTimeout time.Duration
}

func New(runtime Runtime, st *session.State, mem MemoryWriter, outbound chan<- bus.OutboundMessage, decisionTimeout time.Duration) *Orchestrator {
	if decisionTimeout <= 0 {
		decisionTimeout = 120 * time.Second
	}
	return &Orchestrator{
		runtime:         runtime,
		session:         st,
		mem:             mem,
		outbound:        outbound,
		decisionTimeout: decisionTimeout,
	}
}

// Process runs the per-event state machine:
// Admitted -> ContextAssembled -> Decided -> Dispatched, with an early
// Skipped exit when a chat-sourced event has no memory context at all.
// The HTTP-sourced path always proceeds on partial context; it has no chat
// room to silently ignore.
func (o *Orchestrator) Process(ctx context.Context, req Request) (Outcome, State) {
	if req.Context == nil {
		log.Printf("[orchestrator] %s trigger without context, ignoring", req.Trigger.Source)
		return Outcome{Kind: NoAction}, StateAdmitted
	}

	if req.Trigger.Source == bus.SourceChat && req.Context.MemoryUnavailable {
		log.Printf("[orchestrator] memory backend unavailable, skipping chat message processing")
		return Outcome{Kind: NoAction}, StateSkipped
	}

	output, err := o.decide(ctx, req)
	if err != nil {
		log.Printf("[orchestrator] decision step failed: %v", err)
		return Outcome{Kind: NoAction}, StateDecided
	}

	outcome := interpret(req.Mode, output)
	if outcome.Kind == NoAction {
		return outcome, StateDecided
	}

	if err := o.dispatch(ctx, req, outcome); err != nil {
		log.Printf("[orchestrator] dispatch failed: %v", err)
		return Outcome{Kind: NoAction}, StateDecided
	}
	return outcome, StateDispatched
}

// decide invokes the external decision step under a watchdog timeout so a
// call that never returns cannot wedge the event loop. Panics from the
// runtime are contained here.
func (o *Orchestrator) decide(ctx context.Context, req Request) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = ""
			err = fmt.Errorf("decision step panic: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, o.decisionTimeout)
	defer cancel()

	resp, err := o.runtime.Run(callCtx, api.Request{
		Prompt:    o.composePrompt(req),
		SessionID: sessionID(req.Trigger),
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Result == nil {
		return "", nil
	}
	return resp.Result.Output, nil
}

func (o *Orchestrator) composePrompt(req Request) string {
	profile := profileFor(req.Mode)

	var sb strings.Builder
	sb.WriteString(profile.Instructions())

	switch req.Mode {
	case ModeAutonomous:
		fmt.Fprintf(&sb, "\n\nYour last notification to the user was: %q", o.session.LastNotification())
	case ModeSummary:
		lang := req.Lang
		if lang == "" {
			lang = "en"
		}
		fmt.Fprintf(&sb, "\n\nWrite the summary in language: %s.", lang)
	}

	sb.WriteString("\n\n[Context]\n")
	sb.WriteString(req.Context.PromptBlock())

	switch req.Mode {
	case ModeChat:
		sb.WriteString("\n\n[Conversation]\n")
		if req.History != "" {
			sb.WriteString(req.History)
		} else {
			sb.WriteString("No previous conversation history.")
		}
		sb.WriteString("\n\nPlease respond to the most recent message considering this conversation context.")
	default:
		if strings.TrimSpace(req.Trigger.Payload) != "" {
			sb.WriteString("\n\n[Trigger]\n")
			sb.WriteString(req.Trigger.Payload)
		}
	}

	return sb.String()
}

// interpret maps the raw decision output to an outcome.
func interpret(mode Mode, output string) Outcome {
	text := strings.TrimSpace(output)
	if text == "" || text == noResponseMarker {
		return Outcome{Kind: NoAction}
	}
	if mode == ModeAutonomous {
		return Outcome{Kind: ActionTaken, Text: text}
	}
	return Outcome{Kind: ReplyText, Text: text}
}

// dispatch routes the outcome to its sink and updates session markers for
// chat-sourced triggers.
func (o *Orchestrator) dispatch(ctx context.Context, req Request, outcome Outcome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch panic: %v", r)
		}
	}()

	switch req.Mode {
	case ModeChat:
		if o.outbound == nil {
			return fmt.Errorf("no outbound sink configured")
		}
		o.outbound <- bus.OutboundMessage{RoomID: req.Trigger.RoomID, Content: outcome.Text}
		o.session.MarkProcessed(req.Trigger.RoomID, req.Trigger.OccurredAt)
	case ModeAutonomous:
		o.session.SetLastNotification(outcome.Text)
		if o.mem != nil {
			note := memory.NewEntry(memory.KindSystem, "Notified user: "+outcome.Text, req.Context.Now)
			if res := o.mem.Write(ctx, note); res.Skipped {
				log.Printf("[orchestrator] notification note skipped: %s", res.Reason)
			}
		}
	case ModeSummary:
		// Summary text is returned to the HTTP caller; nothing to push.
	}
	return nil
}

func sessionID(trigger bus.TriggerEvent) string {
	if trigger.Source == bus.SourceChat {
		return "chat:" + trigger.RoomID
	}
	return "http"
}
