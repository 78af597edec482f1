// fqsplit: parallel splitting of sequencing reads for alignment pipelines.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/fqsplit/blob/master/LICENSE.txt>.

package tools

import "runtime"

// DefaultSizePerThread is the number of input bytes that warrants one
// decompression or compression thread.
const DefaultSizePerThread = 500000

// minThreads is used for inputs that fit in a single size-per-thread
// chunk.
const minThreads = 2

/*
ThreadBudget returns the number of threads a decompressor or
compressor should use for an input of size bytes.

This is an empirically tuned policy, not an optimum. Inputs of at most
perThread bytes get two threads. Larger inputs get one thread per
perThread bytes, unless that reaches the number of logical CPUs, in
which case ThreadBudget returns 0, meaning the tool picks its own
thread count. A perThread of 0 or less selects DefaultSizePerThread.
*/
func ThreadBudget(size, perThread int64) int {
	return threadBudget(size, perThread, runtime.NumCPU())
}

func threadBudget(size, perThread int64, cpus int) int {
	if perThread <= 0 {
		perThread = DefaultSizePerThread
	}
	if size <= perThread {
		return minThreads
	}
	if n := size / perThread; n < int64(cpus) {
		return int(n)
	}
	return 0
}
