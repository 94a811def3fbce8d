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

// Package opener hands files to the application the platform associates with them.
package opener

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/skratchdot/open-golang/open"
	"gitlab.com/tozd/go/errors"
)

// 🚪 Opener launches the default application for a local path
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Func adapts a function to Opener.
type Func func(ctx context.Context, path string) error

func (f Func) Open(ctx context.Context, path string) error { return f(ctx, path) }

// Default returns the platform opener: xdg-open, open or start, depending on the OS.
func Default() Opener {
	return platform{start: open.Start}
}

type platform struct {
	start func(input string) error
}

// Open starts the application without waiting for it to exit.
func (p platform) Open(ctx context.Context, path string) error {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opening with default application")
	if err := p.start(path); err != nil {
		return errors.Errorf("opening %s: %w", path, err)
	}
	return nil
}
