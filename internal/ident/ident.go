// Package ident generates process-unique, time-ordered string identifiers.
package ident

import (
	"strconv"
	"sync/atomic"
	"time"
)

var counter atomic.Uint64

// New returns a new identifier combining the current time in microseconds
// with a process-wide counter, both hex-encoded. Identifiers generated by
// one process are unique and sort roughly by creation time.
func New() string {
	micros := time.Now().UnixMicro()
	n := counter.Add(1) - 1
	return strconv.FormatInt(micros, 16) + strconv.FormatUint(n, 16)
}
