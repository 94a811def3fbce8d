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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrCancelled ends a job in StateCancelled.
	ErrCancelled = errors.Base("job cancelled")
	// ErrAborted ends a job in StateFailed after a resolver answered CancelAll.
	ErrAborted = errors.Base("job aborted")
	// ErrCollision describes a destination that already exists.
	ErrCollision = errors.Base("destination already exists")
	// ErrInvalidTransition is returned for control requests the current state does not allow.
	ErrInvalidTransition = errors.Base("invalid job state transition")
)

// 💥 StructuralError is a failure no per-file decision can fix, such as a destination
// directory that cannot be created or an archive stream that broke
type StructuralError struct {
	Path string
	Err  error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural failure at %s: %v", e.Path, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

func structural(path string, err error) error {
	return errors.WithStack(&StructuralError{Path: path, Err: err})
}

// IsStructural reports whether err carries a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
