// Package assembler builds one consistent decision context per trigger
// event. Collaborator failures degrade individual fields; they never abort
// assembly.
package assembler

import (
	"context"
	"log"
	"time"

	"github.com/Alpha200/ha-ai-tasker/internal/bus"
	"github.com/Alpha200/ha-ai-tasker/internal/homeassistant"
	"github.com/Alpha200/ha-ai-tasker/internal/memory"
)

// Partial carries a collaborator result that may be unavailable. Callers
// must check Available; there is no error to propagate.
type Partial[T any] struct {
	Value     T
	Available bool
}

func Ok[T any](value T) Partial[T] { return Partial[T]{Value: value, Available: true} }

func Unavailable[T any]() Partial[T] { return Partial[T]{} }

// DecisionContext is the full input for one decision. Built fresh per
// event, never persisted.
type DecisionContext struct {
	Now               time.Time
	Location          Partial[string]
	Weather           Partial[homeassistant.Snapshot]
	Calendar          Partial[[]homeassistant.Event]
	Memories          []memory.Entry
	MemoryUnavailable bool
	TriggerPayload    string
}

// Collaborator interfaces, satisfied by *homeassistant.Client and by test
// fakes.
type (
	WeatherProvider interface {
		Weather(ctx context.Context) (homeassistant.Snapshot, error)
	}
	CalendarProvider interface {
		Calendar(ctx context.Context) ([]homeassistant.Event, error)
	}
	LocationProvider interface {
		Geofence(ctx context.Context) (string, error)
	}
)

// MemoryReader is the slice of the memory adapter the assembler needs.
type MemoryReader interface {
	Read(ctx context.Context, kind memory.Kind) memory.ReadResult
}

type Assembler struct {
	mem      MemoryReader
	weather  WeatherProvider
	calendar CalendarProvider
	location LocationProvider
	timeout  time.Duration
	now      func() time.Time
}

// New creates an assembler. Any provider may be nil; the matching field is
// then always unavailable.
func New(mem MemoryReader, weather WeatherProvider, calendar CalendarProvider, location LocationProvider, timeout time.Duration) *Assembler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Assembler{
		mem:      mem,
		weather:  weather,
		calendar: calendar,
		location: location,
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetClock overrides the assembler's clock (for testing).
func (a *Assembler) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Assemble gathers memories and collaborator state for one trigger. System
// memories past their retention are excluded against the assembly clock.
// MemoryUnavailable is set only when both memory kinds report an
// unreachable backend.
func (a *Assembler) Assemble(ctx context.Context, trigger bus.TriggerEvent) *DecisionContext {
	now := a.now()
	dctx := &DecisionContext{
		Now:            now,
		TriggerPayload: trigger.Payload,
		Location:       Unavailable[string](),
		Weather:        Unavailable[homeassistant.Snapshot](),
		Calendar:       Unavailable[[]homeassistant.Event](),
	}

	userRes := a.readMemories(ctx, memory.KindUser)
	systemRes := a.readMemories(ctx, memory.KindSystem)
	dctx.MemoryUnavailable = userRes.BackendUnavailable && systemRes.BackendUnavailable
	dctx.Memories = append(dctx.Memories, memory.Fresh(userRes.Entries, now)...)
	dctx.Memories = append(dctx.Memories, memory.Fresh(systemRes.Entries, now)...)

	if a.location != nil {
		if loc, err := a.queryLocation(ctx); err != nil {
			log.Printf("[assembler] geofence unavailable: %v", err)
		} else {
			dctx.Location = Ok(loc)
		}
	}
	if a.weather != nil {
		if snap, err := a.queryWeather(ctx); err != nil {
			log.Printf("[assembler] weather unavailable: %v", err)
		} else {
			dctx.Weather = Ok(snap)
		}
	}
	if a.calendar != nil {
		if events, err := a.queryCalendar(ctx); err != nil {
			log.Printf("[assembler] calendar unavailable: %v", err)
		} else {
			dctx.Calendar = Ok(events)
		}
	}

	return dctx
}

func (a *Assembler) readMemories(ctx context.Context, kind memory.Kind) memory.ReadResult {
	if a.mem == nil {
		return memory.ReadResult{BackendUnavailable: true}
	}
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.mem.Read(callCtx, kind)
}

func (a *Assembler) queryLocation(ctx context.Context) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.location.Geofence(callCtx)
}

func (a *Assembler) queryWeather(ctx context.Context) (homeassistant.Snapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.weather.Weather(callCtx)
}

func (a *Assembler) queryCalendar(ctx context.Context) ([]homeassistant.Event, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.calendar.Calendar(callCtx)
}
