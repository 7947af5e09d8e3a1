// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package bench

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pin binds the calling OS thread to one CPU, spreading workers round robin.
// The caller must hold the thread with runtime.LockOSThread.
func pin(worker int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(worker % runtime.NumCPU())
	return unix.SchedSetaffinity(0, &set)
}

// CanPin reports whether workers can be bound to CPUs.
const CanPin = true
