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

package fastq

import "log"

// SplitPlan is the part of a file that goes into one split.
type SplitPlan struct {
	Index  int
	Reads  int64
	Lines  int64
	Offset int64 // in lines from the start of the file
}

/*
PlanSplits divides reads over n splits. The first reads mod n splits
get one read more than the others, and each split starts at the line
where the previous one ends. PlanSplits is a pure function of its
arguments.
*/
func PlanSplits(reads int64, n int) []SplitPlan {
	if n < 1 {
		log.Panicf("invalid number of splits %v", n)
	}
	base, remainder := reads/int64(n), reads%int64(n)
	plans := make([]SplitPlan, n)
	var offset int64
	for i := range plans {
		r := base
		if int64(i) < remainder {
			r++
		}
		plans[i] = SplitPlan{
			Index:  i,
			Reads:  r,
			Lines:  r * LinesPerRecord,
			Offset: offset,
		}
		offset += r * LinesPerRecord
	}
	return plans
}
