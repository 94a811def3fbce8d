// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package job

import (
	"sync/atomic"
)

// 🚦 State is where a job is in its lifecycle
//
//	Queued ──▶ Running ◀──▶ Paused
//	  │          │            │
//	  ▼          ▼            ▼
//	Cancelled  Completed | Cancelled | Failed
type State int32

const (
	StateQueued State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var transitions = map[State][]State{
	StateQueued:  {StateRunning, StateCancelled},
	StateRunning: {StatePaused, StateCompleted, StateCancelled, StateFailed},
	StatePaused:  {StateRunning, StateCancelled},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// stateBox holds a State that is changed with compare-and-swap only.
type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) load() State { return State(b.v.Load()) }

// move performs from → to if the state is still from and the move is legal.
func (b *stateBox) move(from, to State) bool {
	if !CanTransition(from, to) {
		return false
	}
	return b.v.CompareAndSwap(int32(from), int32(to))
}

// finish moves whatever non-terminal state is current into the terminal state to.
func (b *stateBox) finish(to State) (State, bool) {
	for {
		cur := b.load()
		if cur.Terminal() {
			return cur, false
		}
		next := to
		if !CanTransition(cur, next) {
			// completion and failure only leave Running
			next = StateRunning
		}
		if b.v.CompareAndSwap(int32(cur), int32(next)) && next == to {
			return to, true
		}
	}
}
