// Package statechart is a hierarchical state machine runtime for control loops.
//
// A Chart is an immutable state tree plus transition table, compiled once by a
// Builder (or from YAML with Config.Compile). An Engine runs a Chart: producers
// call Dispatch or TickHook to enqueue events, and a single consumer calls Run,
// which drains the queue through the least-common-ancestor transition
// algorithm and then executes exactly one run pass of the current leaf state.
//
// The engine holds no locks. Any synchronization between producers and the
// consumer is provided by the injected Queue (see package queue), and Run and
// TickHook must be serialized by the caller (see package runner).
//
// Steady-state Dispatch, Run and TickHook do not allocate.
package statechart
