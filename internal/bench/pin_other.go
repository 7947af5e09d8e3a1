// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

//go:build !linux

package bench

import "errors"

func pin(int) error {
	return errors.New("pinning threads is only supported on linux")
}

// CanPin reports whether workers can be bound to CPUs.
const CanPin = false
