// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rts is an effect-system runtime: a value-oriented representation
// of side-effecting computations ("effects") together with an interpreter
// that executes them on cooperative lightweight tasks ("fibers").
//
// An [Effect] is a pure, lazy description of a computation that may
// produce a value of type A or fail with a typed error of type E. Building
// an Effect never runs it; the runtime interprets the tree on demand.
//
// # Design Philosophy
//
// rts provides:
//   - A closed, tagged effect tree evaluated by a trampolined interpreter
//     — no host-stack recursion crosses effect boundaries
//   - A continuation stack that separates data-flow frames (Apply) from
//     error-recovery frames (Recover) and cleanup frames (Finalize)
//   - Structured concurrency: fibers fork, join, race, and interrupt, with
//     finalizers guaranteed to run on every exit path
//
// # Core Constructors
//
//   - [Now]: lift an already-evaluated value
//   - [Point], [Sync]: defer a pure/effectful thunk until interpreted
//   - [SyncThrowable]: like [Sync] but converts panics into typed failures
//   - [Suspend]: defer production of the effect tree itself
//   - [Fail]: typed failure
//   - [Terminate]: untyped defect, unrecoverable by [Attempt]
//
// # Sequencing and Recovery
//
//   - [FlatMap], [Map]: sequence and transform
//   - [Attempt], [Absolve]: reify/un-reify a typed failure as [Either]
//   - [Ensuring], [OnError]: guaranteed and conditional finalizers
//   - [WidenError]: structural witness that a narrower error fits a wider one
//
// # Concurrency
//
//   - [Fork]: run an effect on a new fiber
//   - [Fiber.Join]: suspend until a fiber terminates, propagating its exit
//   - [Fiber.Interrupt]: asynchronously request termination
//   - [Async], [AsyncPure]: suspend until an external callback resumes
//   - [Sleep], [Never]: timer and permanently-suspended effects
//
// # Running
//
//   - [Run]: block the calling thread until the effect terminates
//   - [NewIORef]: an atomically-sequenced mutable cell
//   - [NewPromise]: a write-once cell with async waiters
//
// # Derived Combinators
//
// [Bracket], [Race], [RaceAll], [MergeAll], [ReduceAll], [Par], [ParN],
// [DoUntil], [Forever], and [Timeout] are mechanical compositions of the
// primitives above, kept here because exercising them is how the
// interpreter's finalizer and interruption guarantees get proven out.
package rts
