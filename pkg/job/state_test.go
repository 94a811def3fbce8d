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
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 TestCanTransition tests the lifecycle table
func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateQueued, StateRunning, true},
		{StateQueued, StateCancelled, true},
		{StateQueued, StateCompleted, false},
		{StateRunning, StatePaused, true},
		{StateRunning, StateFailed, true},
		{StatePaused, StateRunning, true},
		{StatePaused, StateCompleted, false},
		{StateCompleted, StateRunning, false},
		{StateCancelled, StateQueued, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

// 🧪 TestStateBoxFinish tests that finishing routes through running when it has to
func TestStateBoxFinish(t *testing.T) {
	var b stateBox
	assert.Equal(t, StateQueued, b.load())

	assert.False(t, b.move(StateQueued, StatePaused))
	assert.True(t, b.move(StateQueued, StateRunning))
	assert.True(t, b.move(StateRunning, StatePaused))

	final, ok := b.finish(StateFailed)
	assert.True(t, ok)
	assert.Equal(t, StateFailed, final)

	final, ok = b.finish(StateCompleted)
	assert.False(t, ok)
	assert.Equal(t, StateFailed, final)
}
