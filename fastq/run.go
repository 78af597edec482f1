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
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/exascience/fqsplit/internal"
	"github.com/exascience/fqsplit/readfeed"
)

func originalRecords(files []*InputFile) []readfeed.File {
	records := make([]readfeed.File, len(files))
	for i, file := range files {
		records[i] = readfeed.File{
			Path:   file.Path,
			Size:   file.Size,
			Reads:  file.Reads,
			Zip:    file.Zip(),
			Format: readfeed.Fastq,
		}
	}
	return records
}

// expectedSplitRecords returns the records a complete run of plans would
// produce, without sizes.
func (job *SplitJob) expectedSplitRecords(files []*InputFile, plans [][]SplitPlan) []readfeed.File {
	var records []readfeed.File
	for i := 0; i < job.Splits; i++ {
		for s, file := range files {
			records = append(records, readfeed.File{
				Path:   filepath.Join(job.SplitDir(), SplitName(file.Sense, i)),
				Reads:  plans[s][i].Reads,
				Zip:    true,
				Format: readfeed.Fastq,
			})
		}
	}
	return records
}

// Readfeed builds the descriptor for files and the completed splits in
// set.
func (job *SplitJob) Readfeed(files []*InputFile, set *SplitSet) *readfeed.Readfeed {
	feed := &readfeed.Readfeed{
		RunID:     job.RunID,
		Time:      time.Now(),
		Senses:    len(files),
		Splits:    job.Splits,
		Originals: originalRecords(files),
	}
	for _, file := range files {
		feed.TotalReads += file.Reads
	}
	for _, result := range set.Completed() {
		feed.SplitFiles = append(feed.SplitFiles, readfeed.File{
			Path:   result.Path,
			Size:   result.Size,
			Reads:  result.Reads,
			Zip:    true,
			Format: readfeed.Fastq,
		})
	}
	return feed
}

// ready reports whether the split directory already holds the result
// of this job.
func (job *SplitJob) ready(files []*InputFile, plans [][]SplitPlan) bool {
	feed, err := readfeed.Read(job.DescriptorPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Println("Warning: ignoring existing readfeed:", err)
		}
		return false
	}
	return feed.Ready(originalRecords(files), job.expectedSplitRecords(files, plans), job.Splits)
}

/*
Run performs a complete split job: it resolves the external tools,
counts the reads in the input files, plans the splits, runs the split
pipelines, and writes the readfeed descriptor.

Missing tools and paired files with different read counts abort the run
before any file is written, the latter unless job.AllowPairMismatch is
set. Unless job.Force is set, a split directory that already holds a
matching readfeed is left untouched. Otherwise the split directory is
cleared first.

When some splits fail, the descriptor lists only the completed ones and
Run returns SplitFailures.
*/
func (job *SplitJob) Run(progress func()) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if err := job.ResolveTools(); err != nil {
		return err
	}
	job.ensureRunID()
	log.Println("Run", job.RunID)

	files, err := job.SampleFiles()
	if err != nil {
		var mismatch *PairMismatchError
		if !errors.As(err, &mismatch) || !job.AllowPairMismatch {
			return err
		}
		log.Println("Error:", err)
		log.Println("Continuing, each file is split by its own read count.")
	}
	plans := job.PlanAll(files)

	if !job.Force && job.ready(files, plans) {
		log.Println("Split is ready in", job.SplitDir(), "- no need to run.")
		return nil
	}
	if err := internal.ClearDirectory(job.SplitDir()); err != nil {
		return err
	}

	log.Printf("Splitting %v file(s) into %v split(s) each.\n", len(files), job.Splits)
	set, failures := job.ExecuteSplits(files, plans, progress)
	feed := job.Readfeed(files, set)
	if err := readfeed.Write(job.DescriptorPath(), feed); err != nil {
		return err
	}
	log.Println("Wrote", job.DescriptorPath(), "- total reads:", feed.TotalReads)
	if len(failures) > 0 {
		return failures
	}
	return nil
}
