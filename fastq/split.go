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
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/willf/bitset"

	"github.com/exascience/fqsplit/tools"
)

// SplitExt is the file extension of split files.
const SplitExt = ".fq.gz"

// SplitName returns the base name of the split file for the given
// sense and split index.
func SplitName(sense Sense, index int) string {
	return fmt.Sprintf("%v_%v%v", sense, index, SplitExt)
}

// SplitResult is a split file that was written successfully.
type SplitResult struct {
	Path  string
	Size  int64
	Reads int64
	Sense Sense
	Index int
}

type (
	// SplitFailure reports one split whose pipeline did not complete.
	SplitFailure struct {
		Source string
		Sense  Sense
		Index  int
		Err    error
	}

	// SplitFailures is returned when some splits failed while the
	// others completed.
	SplitFailures []SplitFailure
)

func (f SplitFailure) Error() string {
	return fmt.Sprintf("%v split %v of %v: %v", f.Sense, f.Index, f.Source, f.Err)
}

func (f SplitFailure) Unwrap() error { return f.Err }

func (fs SplitFailures) Error() string {
	msgs := make([]string, len(fs))
	for i, f := range fs {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v split(s) failed:\n%v", len(fs), strings.Join(msgs, "\n"))
}

/*
SplitSet holds the outcome of ExecuteSplits.

Results are stored by slot, where the slot of split i of the file with
sense s is i*Senses+s. This is the order in which splits are listed in a
readfeed. Done has a bit set for every slot whose pipeline completed;
the results of other slots are zero.
*/
type SplitSet struct {
	Senses  int
	Results []SplitResult
	Done    *bitset.BitSet
}

// Completed returns the successful results in slot order.
func (set *SplitSet) Completed() []SplitResult {
	results := make([]SplitResult, 0, set.Done.Count())
	for slot, result := range set.Results {
		if set.Done.Test(uint(slot)) {
			results = append(results, result)
		}
	}
	return results
}

func (job *SplitJob) executeSplit(file *InputFile, plan SplitPlan, threads int) (result SplitResult, err error) {
	path := filepath.Join(job.SplitDir(), SplitName(file.Sense, plan.Index))
	out, err := os.Create(path)
	if err != nil {
		return result, err
	}
	compress := job.compressor.CompressCommand(threads)
	if plan.Reads == 0 {
		err = job.runner.Run(compress, strings.NewReader(""), out)
	} else {
		decompress := job.decompressor.RangeCommand(file.Path, threads, plan.Lines, plan.Offset)
		err = job.runner.Pipe(decompress, compress, out)
	}
	if nerr := out.Close(); err == nil {
		err = nerr
	}
	if err != nil {
		_ = os.Remove(path)
		return result, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return result, err
	}
	return SplitResult{
		Path:  path,
		Size:  info.Size(),
		Reads: plan.Reads,
		Sense: file.Sense,
		Index: plan.Index,
	}, nil
}

/*
ExecuteSplits writes one split file per file and plan into the split
directory, which must exist. plans[s] holds the plans for files[s]; all
files must have the same number of plans.

Each split runs the decompressor on its line range and pipes the output
into the compressor. Up to job.ParallelSplits pipelines run at the same
time. A failing split does not stop the others; its slot stays unset in
the returned SplitSet and it is listed in the returned SplitFailures.
progress, if not nil, is called after every split, whether it failed or
not.
*/
func (job *SplitJob) ExecuteSplits(files []*InputFile, plans [][]SplitPlan, progress func()) (*SplitSet, SplitFailures) {
	senses := len(files)
	numSplits := len(plans[0])
	slots := numSplits * senses
	set := &SplitSet{
		Senses:  senses,
		Results: make([]SplitResult, slots),
		Done:    bitset.New(uint(slots)),
	}
	errs := make([]error, slots)
	threads := make([]int, senses)
	for s, file := range files {
		threads[s] = tools.ThreadBudget(file.Size/int64(numSplits), job.SizePerThread)
	}
	execute := func(low, high int) {
		for slot := low; slot < high; slot++ {
			s, i := slot%senses, slot/senses
			set.Results[slot], errs[slot] = job.executeSplit(files[s], plans[s][i], threads[s])
			if progress != nil {
				progress()
			}
		}
	}
	if batches := job.ParallelSplits; batches > 1 && slots > 1 {
		if batches > slots {
			batches = slots
		}
		parallel.Range(0, slots, batches, execute)
	} else {
		execute(0, slots)
	}
	var failures SplitFailures
	for slot, err := range errs {
		if err == nil {
			set.Done.Set(uint(slot))
			continue
		}
		s, i := slot%senses, slot/senses
		failure := SplitFailure{Source: files[s].Path, Sense: files[s].Sense, Index: i, Err: err}
		log.Println("Error:", failure)
		failures = append(failures, failure)
	}
	return set, failures
}

// PlanAll plans the splits of every file.
func (job *SplitJob) PlanAll(files []*InputFile) [][]SplitPlan {
	plans := make([][]SplitPlan, len(files))
	for s, file := range files {
		plans[s] = PlanSplits(file.Reads, job.Splits)
	}
	return plans
}
