//go:build !appengine && !noasm && gc

// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"github.com/klauspost/cpuid/v2"
)

// The kernels use SHA256RNDS2/MSG1/MSG2 plus PSHUFB (SSSE3) and PBLENDW (SSE4.1).
var hasAccel = cpuid.CPU.Supports(cpuid.SHA, cpuid.SSSE3, cpuid.SSE4)

const accelName = "SHA-NI"
