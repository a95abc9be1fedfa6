package runtime

import (
	"strconv"
	"time"

	"github.com/duragraph/duragraph/internal/domain/node"
)

// EventDef describes one variant of a service's event union, for the
// translator to turn into generated signal/activity names: one entry per
// input flow plus one per declared timer (spec.md §4.7, §6 "event-union
// definition" in the core's output to the emitter).
type EventDef struct {
	Name   string
	FlowID int // zero for the timer variants
	Tag    EventTag
}

// TimerDef describes one of the service's two distinguished timers.
type TimerDef struct {
	Name  string
	Kind  TimerKind
	Delay time.Duration
}

// ContextFieldDef describes one observable signal the context record
// exposes: an input, a public output, or a selected intermediate the
// translator chose to surface.
type ContextFieldDef struct {
	SignalID int
	Name     string
}

// DispatchEntry names what the handler calls for one event variant, the
// "handler dispatch table" §6 lists as one of the core's outputs to the
// emitter.
type DispatchEntry struct {
	Event   string
	Handler string
}

// Definition is everything the runtime synthesizer hands to the emitter
// for one service node: its event union, its timer union, its context
// record, and its dispatch table. runtime/translator consumes a
// Definition to build the generated Temporal workflow function; an
// in-process driver can use the same Definition to wire a Kernel directly
// without a workflow engine at all.
type Definition struct {
	ServiceName string
	Events      []EventDef
	Timers      []TimerDef
	Context     []ContextFieldDef
	Dispatch    []DispatchEntry
}

// BuildDefinition derives a service's Definition from its compiled Node:
// one EventDef per input flow, the two timer variants at the durations
// given, one ContextFieldDef per input/output (the "selected
// intermediates" a richer translator might add are left to the caller,
// since picking which internals to surface is a synthesis-time choice the
// core's Node alone doesn't record), and a dispatch entry per event
// variant naming the handler method Kernel exposes for it.
func BuildDefinition(serviceName string, service *node.Node, debounceWindow, heartbeatTimeout time.Duration) Definition {
	def := Definition{ServiceName: serviceName}

	for _, id := range service.Inputs {
		def.Events = append(def.Events, EventDef{Name: flowEventName(service, id), FlowID: id, Tag: EventInput})
	}
	def.Timers = []TimerDef{
		{Name: "Delay" + serviceName, Kind: TimerDebounce, Delay: debounceWindow},
		{Name: "Timeout" + serviceName, Kind: TimerHeartbeat, Delay: heartbeatTimeout},
	}

	for _, id := range service.Inputs {
		def.Context = append(def.Context, ContextFieldDef{SignalID: id})
	}
	for _, id := range service.Outputs {
		def.Context = append(def.Context, ContextFieldDef{SignalID: id})
	}

	for _, e := range def.Events {
		def.Dispatch = append(def.Dispatch, DispatchEntry{Event: e.Name, Handler: "HandleInput"})
	}
	def.Dispatch = append(def.Dispatch,
		DispatchEntry{Event: def.Timers[0].Name, Handler: "HandleDebounceFired"},
		DispatchEntry{Event: def.Timers[1].Name, Handler: "HandleHeartbeatFired"},
	)

	return def
}

func flowEventName(service *node.Node, id int) string {
	for i, in := range service.Inputs {
		if in == id {
			return "Input" + service.Name + "Flow" + strconv.Itoa(i)
		}
	}
	return "InputUnknown"
}
