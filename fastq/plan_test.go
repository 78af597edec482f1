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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planReads(plans []SplitPlan) (reads []int64) {
	for _, plan := range plans {
		reads = append(reads, plan.Reads)
	}
	return reads
}

func planOffsets(plans []SplitPlan) (offsets []int64) {
	for _, plan := range plans {
		offsets = append(offsets, plan.Offset)
	}
	return offsets
}

func TestPlanSplitsProperties(t *testing.T) {
	for reads := int64(0); reads <= 60; reads++ {
		for n := 1; n <= 9; n++ {
			plans := PlanSplits(reads, n)
			require.Len(t, plans, n)
			ceil, floor := (reads+int64(n)-1)/int64(n), reads/int64(n)
			remainder := int(reads % int64(n))
			var sum, offset int64
			for i, plan := range plans {
				assert.Equal(t, i, plan.Index)
				if i < remainder {
					assert.Equal(t, ceil, plan.Reads, "R=%v N=%v split %v", reads, n, i)
				} else {
					assert.Equal(t, floor, plan.Reads, "R=%v N=%v split %v", reads, n, i)
				}
				assert.Equal(t, plan.Reads*LinesPerRecord, plan.Lines)
				assert.Equal(t, offset, plan.Offset, "R=%v N=%v split %v", reads, n, i)
				offset += LinesPerRecord * plan.Reads
				sum += plan.Reads
			}
			assert.Equal(t, reads, sum, "R=%v N=%v", reads, n)
			assert.Equal(t, plans, PlanSplits(reads, n), "replanning R=%v N=%v", reads, n)
		}
	}
}

func TestPlanSplitsExamples(t *testing.T) {
	plans := PlanSplits(20000, 3)
	assert.Equal(t, []int64{6667, 6667, 6666}, planReads(plans))

	plans = PlanSplits(10, 2)
	assert.Equal(t, []int64{5, 5}, planReads(plans))
	assert.Equal(t, []int64{0, 20}, planOffsets(plans))

	plans = PlanSplits(10000, 4)
	assert.Equal(t, []int64{2500, 2500, 2500, 2500}, planReads(plans))
	assert.Equal(t, []int64{0, 10000, 20000, 30000}, planOffsets(plans))

	plans = PlanSplits(10001, 4)
	assert.Equal(t, []int64{2501, 2500, 2500, 2500}, planReads(plans))
	assert.Equal(t, []int64{0, 10004, 20004, 30004}, planOffsets(plans))

	plans = PlanSplits(12345, 1)
	assert.Equal(t, []SplitPlan{{Index: 0, Reads: 12345, Lines: 49380, Offset: 0}}, plans)
}

func TestPlanSplitsInvalid(t *testing.T) {
	assert.Panics(t, func() { PlanSplits(10, 0) })
}
