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

// Package cor (Chain of Responsibility) provides the building blocks of the
// service's workflows. A workflow is a Chain of Commands sharing one Context:
// each command reads its input from the context, does one step of work and
// stores its output for the next command.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of a workflow run.
type Context interface {
	// SetContext sets the context.Context used for cancellation and tracing.
	SetContext(ctx context.Context)
	// GetContext returns the current context.Context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value any) Context
	// Get returns the value stored under key, or nil.
	Get(key string) any
	// Remove deletes key.
	Remove(key string)

	// AddError records err under key, normally the name of the failing command.
	AddError(key string, err error)
	// GetErrors returns every recorded error keyed by command name.
	GetErrors() map[string]error
	// HasErrors reports whether any error was recorded.
	HasErrors() bool
	// Err joins the recorded errors in key order, or returns nil.
	Err() error
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a single, named and instrumented step of a workflow.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable checks the preconditions of Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs commands in order. It is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain keep going after a command records an error.
	ContinueOnFailure(bool) Chain
	// AddCommand appends command to the chain.
	AddCommand(command Command) Chain
}
