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

package entry

import (
	"io/fs"
	"time"
)

// SizeUnknown marks an entry whose size the backend could not report.
const SizeUnknown int64 = -1

// Permissions reported for entries whose source format carries none.
const (
	DefaultFilePermissions      fs.FileMode = 0o644
	DefaultDirectoryPermissions fs.FileMode = 0o755
)

// 📄 Attributes is the metadata bag attached to an entry
type Attributes struct {
	Address Address
	Size    int64
	ModTime time.Time
	Dir     bool

	perms *fs.FileMode
}

// 🏭 NewAttributes returns attributes with an unknown size and no explicit permissions
func NewAttributes(addr Address, dir bool) *Attributes {
	return &Attributes{
		Address: addr,
		Size:    SizeUnknown,
		Dir:     dir,
	}
}

// SetPermissions records explicit permission bits; only the permission part of m is kept.
func (a *Attributes) SetPermissions(m fs.FileMode) {
	p := m.Perm()
	a.perms = &p
}

// ClearPermissions drops explicit permissions so defaults apply again.
func (a *Attributes) ClearPermissions() {
	a.perms = nil
}

// HasPermissions reports whether permissions were set explicitly.
func (a *Attributes) HasPermissions() bool {
	return a.perms != nil
}

// 🔐 EffectivePermissions returns the explicit permissions, or the default for the entry type
func (a *Attributes) EffectivePermissions() fs.FileMode {
	if a.perms != nil {
		return *a.perms
	}
	if a.Dir {
		return DefaultDirectoryPermissions
	}
	return DefaultFilePermissions
}

// Mode combines the effective permissions with the directory type bit.
func (a *Attributes) Mode() fs.FileMode {
	m := a.EffectivePermissions()
	if a.Dir {
		m |= fs.ModeDir
	}
	return m
}

// Name returns the entry name of the address.
func (a *Attributes) Name() string {
	return a.Address.Name()
}

// Depth returns the depth of the address.
func (a *Attributes) Depth() int {
	return a.Address.Depth()
}

// Clone returns an independent copy.
func (a *Attributes) Clone() *Attributes {
	c := *a
	if a.perms != nil {
		p := *a.perms
		c.perms = &p
	}
	return &c
}
