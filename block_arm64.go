//go:build !appengine && !noasm && gc

// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"github.com/klauspost/cpuid/v2"
)

var hasAccel = cpuid.CPU.Supports(cpuid.SHA2, cpuid.ASIMD)

const accelName = "ARMv8 SHA2"
