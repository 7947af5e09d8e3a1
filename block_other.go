//go:build !(amd64 || arm64) || appengine || !gc || noasm

// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

var hasAccel = false

const accelName = ""

var accelBlocks [MaxLanes]func(h []byte, n uint64)
