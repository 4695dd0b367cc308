//go:build !linux

package main

// pinToCPU is a no-op off Linux; sched_setaffinity has no portable
// equivalent.
func pinToCPU(cpu int) {}

// openFileLimit is unavailable off Linux.
func openFileLimit() uint64 { return 0 }
