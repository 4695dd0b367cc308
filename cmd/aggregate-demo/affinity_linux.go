//go:build linux

package main

import "golang.org/x/sys/unix"

// pinToCPU pins the calling OS thread to cpu. The caller must already
// hold its OS thread (runtime.LockOSThread) for the pin to stick.
// Failures are swallowed: a container or cgroup-restricted host may
// reject the mask, and the fallback is simply no pin.
func pinToCPU(cpu int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}

// openFileLimit returns the process's current RLIMIT_NOFILE soft limit,
// reported at startup alongside the worker/core count.
func openFileLimit() uint64 {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0
	}
	return rlim.Cur
}
