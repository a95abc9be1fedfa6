package runtime

import domainexpr "github.com/duragraph/duragraph/internal/domain/ir/expr"

// EventTypeOutputEmitted is published whenever a running service instance
// emits one or more fresh public outputs, mirroring the compilation
// package's own EventType* convention.
const EventTypeOutputEmitted = "runtime.output_emitted"

// OutputEmitted is the eventbus.Event a Kernel-backed service instance
// raises on output emission; streaming/http subscribers turn it into
// whatever wire format a caller observing that instance expects.
type OutputEmitted struct {
	InstanceID string
	Outputs    map[int]domainexpr.Constant
}

func (e OutputEmitted) EventType() string     { return EventTypeOutputEmitted }
func (e OutputEmitted) AggregateID() string   { return e.InstanceID }
func (e OutputEmitted) AggregateType() string { return "runtime_instance" }
