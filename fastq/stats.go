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
	"strings"

	"github.com/exascience/pargo/parallel"
	"github.com/pkg/errors"

	"github.com/exascience/fqsplit/internal"
	"github.com/exascience/fqsplit/tools"
)

// LinesPerRecord is the number of lines of one FASTQ record.
const LinesPerRecord = 4

// Sense is the read orientation of a file.
type Sense int

// Senses of paired-end reads. Single-end reads are Forward.
const (
	Forward Sense = iota
	Reverse
)

func (s Sense) String() string {
	if s == Reverse {
		return "rev"
	}
	return "fwd"
}

// InputFile is an original read file with its statistics.
type InputFile struct {
	Path  string
	Size  int64
	Lines int64
	Reads int64
	Sense Sense
}

// Zip reports whether the file is gzip compressed, judged by its name.
func (f *InputFile) Zip() bool {
	return strings.HasSuffix(f.Path, ".gz")
}

type (
	// RecordAlignmentError reports a line count that is not a multiple
	// of LinesPerRecord.
	RecordAlignmentError struct {
		Path  string
		Lines int64
	}

	// PairMismatchError reports paired files with different read counts.
	PairMismatchError struct {
		Fwd, Rev *InputFile
	}
)

func (e *RecordAlignmentError) Error() string {
	return fmt.Sprintf("%v has %v lines, which is not a multiple of %v", e.Path, e.Lines, LinesPerRecord)
}

func (e *PairMismatchError) Error() string {
	return fmt.Sprintf("paired files differ in read count: %v has %v reads, %v has %v reads",
		e.Fwd.Path, e.Fwd.Reads, e.Rev.Path, e.Rev.Reads)
}

func (job *SplitJob) sampleFile(path string, sense Sense) (*InputFile, error) {
	path, err := internal.FullPathname(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	threads := tools.ThreadBudget(info.Size(), job.SizePerThread)
	lines, err := job.decompressor.CountLines(&job.runner, path, threads)
	if err != nil {
		return nil, err
	}
	if lines%LinesPerRecord != 0 {
		alignErr := &RecordAlignmentError{Path: path, Lines: lines}
		if job.StrictRecords {
			return nil, alignErr
		}
		log.Println("Warning:", alignErr)
	}
	file := &InputFile{
		Path:  path,
		Size:  info.Size(),
		Lines: lines,
		Reads: lines / LinesPerRecord,
		Sense: sense,
	}
	log.Printf("%v: %v bytes, %v lines, %v reads (counted with %v threads)\n", path, file.Size, lines, file.Reads, threads)
	return file, nil
}

/*
SampleFiles determines the size and read count of each file in
job.Files, in order. Read counts come from the decompressor's line
counting mode.

With job.ParallelCount set, all files are counted at the same time,
otherwise one after the other.

For paired files with different read counts, SampleFiles returns the
statistics together with a *PairMismatchError.
*/
func (job *SplitJob) SampleFiles() ([]*InputFile, error) {
	files := make([]*InputFile, len(job.Files))
	errs := make([]error, len(job.Files))
	sample := func(low, high int) {
		for i := low; i < high; i++ {
			files[i], errs[i] = job.sampleFile(job.Files[i], Sense(i))
		}
	}
	if job.ParallelCount && len(files) > 1 {
		parallel.Range(0, len(files), len(files), sample)
	} else {
		sample(0, len(files))
	}
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "while counting reads in %v", job.Files[i])
		}
	}
	if len(files) == 2 && files[0].Reads != files[1].Reads {
		return files, &PairMismatchError{Fwd: files[0], Rev: files[1]}
	}
	return files, nil
}
