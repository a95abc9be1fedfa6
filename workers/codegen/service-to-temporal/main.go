// service-to-temporal emits a standalone Go package for one compiled
// service's runtime Definition: the event union, the timer union, and the
// dispatch table spec.md §6 lists as the core's output to the emitter.
// The generated package is documentation and scaffolding for a
// Temporal-facing client integration — the actual workflow execution
// always runs through the generic ReactiveServiceWorkflow interpreting a
// runtime.Kernel, not through per-service generated code; codegen exists
// so a caller gets typed Go constants for a service's signal names
// instead of hand-copying strings out of a Definition's JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	dgruntime "github.com/duragraph/duragraph/internal/infrastructure/runtime"
)

func main() {
	inputFile := flag.String("input", "", "Input Definition file (JSON, as produced by BuildDefinition)")
	outputDir := flag.String("output", "./generated", "Output directory for the generated Go package")
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("provide the Definition JSON file with -input")
	}

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("failed to read input file: %v", err)
	}

	var def dgruntime.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		log.Fatalf("failed to parse Definition: %v", err)
	}

	code := generatePackage(def)
	if err := writeGeneratedFiles(*outputDir, def.ServiceName, code); err != nil {
		log.Fatalf("failed to write generated files: %v", err)
	}

	fmt.Printf("generated %s/%s_runtime.go from %s\n", *outputDir, strings.ToLower(sanitizeName(def.ServiceName)), *inputFile)
}

func generatePackage(def dgruntime.Definition) string {
	return fmt.Sprintf(`// Code generated from a compiled service's runtime.Definition. DO NOT EDIT.
package %sruntime

// Event names this service's ReactiveServiceWorkflow registers a signal
// channel for, one per input flow.
const (
%s)

// Timer names this service's workflow arms/cancels via TimerAction.
const (
%s)

// DispatchTable names, for each event, the Kernel method the runtime
// calls when that event fires.
var DispatchTable = map[string]string{
%s}
`, strings.ToLower(sanitizeName(def.ServiceName)), generateEventConstants(def), generateTimerConstants(def), generateDispatchTable(def))
}

func generateEventConstants(def dgruntime.Definition) string {
	var b strings.Builder
	for _, e := range def.Events {
		fmt.Fprintf(&b, "\tEvent%s = %q\n", sanitizeName(e.Name), e.Name)
	}
	return b.String()
}

func generateTimerConstants(def dgruntime.Definition) string {
	var b strings.Builder
	for _, t := range def.Timers {
		fmt.Fprintf(&b, "\tTimer%s = %q // %s\n", sanitizeName(t.Name), t.Name, t.Delay)
	}
	return b.String()
}

func generateDispatchTable(def dgruntime.Definition) string {
	var b strings.Builder
	for _, d := range def.Dispatch {
		fmt.Fprintf(&b, "\t%q: %q,\n", d.Event, d.Handler)
	}
	return b.String()
}

func writeGeneratedFiles(outputDir, serviceName, code string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	name := strings.ToLower(sanitizeName(serviceName))
	if name == "" {
		name = "service"
	}
	return os.WriteFile(filepath.Join(outputDir, name+"_runtime.go"), []byte(code), 0o644)
}

// sanitizeName strips def.ServiceName down to a valid Go identifier
// fragment, capitalizing its first letter.
func sanitizeName(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
		}
	}
	out := result.String()
	if out == "" {
		return "Service"
	}
	if out[0] >= 'a' && out[0] <= 'z' {
		return string(out[0]-32) + out[1:]
	}
	return out
}
