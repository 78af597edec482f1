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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/exascience/fqsplit/internal"
	"github.com/exascience/fqsplit/readfeed"
	"github.com/exascience/fqsplit/utils"
)

// pgzip block settings for in-process decompression.
const (
	recountBlockSize = 1 << 20
	recountBlocks    = 4
)

// CountLines returns the number of newline characters in the decompressed
// content of a gzip file, or of the file itself when it does not start
// with the gzip magic bytes.
func CountLines(path string) (lines int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	in, closeIn, err := utils.HandleGzip(bufio.NewReaderSize(f, internal.ReadBufferSize), recountBlockSize, recountBlocks)
	if err != nil {
		return 0, errors.Wrapf(err, "while opening %v", path)
	}
	defer func() {
		if nerr := closeIn(); err == nil {
			err = nerr
		}
	}()
	buf := internal.ReserveReadBuffer()
	defer internal.ReleaseReadBuffer(buf)
	for {
		n, err := in.Read(buf)
		lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
		if err == io.EOF {
			return lines, nil
		} else if err != nil {
			return lines, errors.Wrapf(err, "while reading %v", path)
		}
	}
}

// CountReads returns the number of FASTQ records in a file.
func CountReads(path string) (int64, error) {
	lines, err := CountLines(path)
	if err != nil {
		return 0, err
	}
	if lines%LinesPerRecord != 0 {
		return 0, &RecordAlignmentError{Path: path, Lines: lines}
	}
	return lines / LinesPerRecord, nil
}

/*
Verify checks a readfeed against the file system: every listed file
must exist with its recorded size, every split slot must be listed, and
for each sense the split read counts must add up to the read count of
the original file. With recount set, the reads in each split file are
also counted in-process and compared to the recorded count.

Verify returns an error listing all problems found.
*/
func Verify(feed *readfeed.Readfeed, recount bool) error {
	var problems []string
	report := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	check := func(f readfeed.File) {
		info, err := os.Stat(f.Path)
		if err != nil {
			report("%v", err)
			return
		}
		if info.Size() != f.Size {
			report("%v has size %v, readfeed records %v", f.Path, info.Size(), f.Size)
		}
	}
	var total int64
	for _, f := range feed.Originals {
		check(f)
		total += f.Reads
	}
	if total != feed.TotalReads {
		report("original files have %v reads, readfeed records a total of %v", total, feed.TotalReads)
	}
	senses := len(feed.Originals)
	if expected := feed.Splits * senses; len(feed.SplitFiles) != expected {
		report("readfeed lists %v split files, expected %v", len(feed.SplitFiles), expected)
	} else {
		sums := make([]int64, senses)
		for i, f := range feed.SplitFiles {
			sums[i%senses] += f.Reads
		}
		for s, sum := range sums {
			if sum != feed.Originals[s].Reads {
				report("splits of %v have %v reads, the file has %v", feed.Originals[s].Path, sum, feed.Originals[s].Reads)
			}
		}
	}
	for _, f := range feed.SplitFiles {
		check(f)
		if !recount {
			continue
		}
		reads, err := CountReads(f.Path)
		if err != nil {
			report("%v", err)
		} else if reads != f.Reads {
			report("%v has %v reads, readfeed records %v", f.Path, reads, f.Reads)
		}
	}
	if len(problems) > 0 {
		return errors.Errorf("readfeed verification failed:\n%v", strings.Join(problems, "\n"))
	}
	return nil
}
