// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package weighted

import "errors"

// Sentinel errors shared by every container in this module. Package-
// specific failures wrap one of these with fmt.Errorf("...: %w", ...)
// so callers can always test with errors.Is regardless of which
// container or layer produced the error.
var (
	// ErrNotFound is returned by Get on an absent key.
	ErrNotFound = errors.New("weighted: key not found")
	// ErrOutOfRange is returned by Choose when u < 0 or u >= Total().
	ErrOutOfRange = errors.New("weighted: choose argument out of range")
	// ErrInvalidCapacity is returned by constructors given a bad
	// capacity or bucket count (e.g. HashBuckets with non-power-of-two B).
	ErrInvalidCapacity = errors.New("weighted: invalid capacity")
	// ErrInternal signals a violated invariant: a sum-walk fell off
	// the end of a structure despite a validated u. This is a bug in
	// the container, not a user error.
	ErrInternal = errors.New("weighted: internal invariant violated")
)
