// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux && !darwin

package waitlist

import "time"

// monotonicNow falls back to time.Now().UnixNano() on platforms
// without a direct clock_gettime binding. That is a wall-clock
// reading: it is not monotonic and moves if the system clock is set.
func monotonicNow() time.Duration {
	return time.Duration(time.Now().UnixNano())
}
