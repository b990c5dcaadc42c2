// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks for
// expressing a pipeline as an ordered sequence of commands that share a
// single mutable context. The ingestion pipeline is one linear chain built
// from these pieces; this is deliberately not a general DAG scheduler.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys the chain uses to pipe the primary output of
// one command into the primary input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state bag for one pipeline execution. It carries
// arbitrary keyed data, the errors recorded by commands, and the scratch
// files that must be removed when the run completes.
type Context interface {
	// SetContext sets the standard Go context, which carries cancellation
	// and the active OpenTelemetry span.
	SetContext(context context.Context)

	// GetContext returns the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// AddError records a failure, keyed by the name of the command that
	// produced it. A recorded error stops the chain before the next command
	// unless the chain was built with ContinueOnFailure(true).
	AddError(key string, err error)

	// GetErrors returns all recorded errors keyed by command name.
	GetErrors() map[string]error

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a scratch file for unconditional cleanup.
	AddTempFile(file string)

	// GetTempFiles returns every registered scratch file path.
	GetTempFiles() []string

	// Close removes all registered scratch files. It runs on success and
	// failure alike; removal problems are logged, never escalated.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute performs the unit of work, reading inputs from and writing
	// outputs to the shared Context.
	Execute(context Context)
}

// Command is an atomic, individually traceable unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key for the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's primary output.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute. A command
	// whose inputs are absent is skipped rather than failed.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command composed of an ordered list of child commands, which
// allows chains to nest inside other chains.
type Chain interface {
	Command

	// ContinueOnFailure configures whether later commands still run after an
	// earlier one has recorded an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
