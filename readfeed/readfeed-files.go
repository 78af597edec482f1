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

/*
Package readfeed reads and writes readfeed descriptors.

A readfeed descriptor enumerates the original read files of a run and
the split files derived from them, so that an aligner can discover the
splits at startup. It is a plain text file with one value per line. Lines
starting with # are comments and empty lines are ignored. The data lines
are, in order:

	timestamp
	number of original files
	number of senses (1 for single-end, 2 for paired-end reads)
	number of splits
	total number of reads over all original files

followed by one record per file, first the original files (forward,
then reverse), then the split files in split order, each split listing
its forward file immediately followed by its reverse file. A record is
five lines:

	path
	size in bytes
	number of reads
	1 if the file is gzip compressed, 0 otherwise
	fastq or fasta

Each descriptor starts with a comment block beginning with
"# format of this file:". A file may hold several appended
descriptors; readers use the last one.
*/
package readfeed

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Name is the file name of a readfeed descriptor in its split directory.
const Name = "readfeed"

// Record formats.
const (
	Fastq = "fastq"
	Fasta = "fasta"
)

// TimeLayout is the layout of the timestamp line.
const TimeLayout = time.ANSIC

const headerStart = "# format of this file:"

const header = headerStart + "\n" +
	"#   time\n" +
	"#   num_orig_files\n" +
	"#   num_senses\n" +
	"#   num_splits\n" +
	"#   num_reads_tot\n" +
	"#   [\n" +
	"#     file\n" +
	"#     size\n" +
	"#     reads\n" +
	"#     zip\n" +
	"#     fastq/a\n" +
	"#   ] for each file both original and split\n"

type (
	// File is one record of a readfeed.
	File struct {
		Path   string
		Size   int64
		Reads  int64
		Zip    bool
		Format string
	}

	// Readfeed is a complete descriptor.
	Readfeed struct {
		RunID      string
		Time       time.Time
		Senses     int
		Splits     int
		TotalReads int64
		Originals  []File
		SplitFiles []File
	}
)

func zipFlag(zip bool) int {
	if zip {
		return 1
	}
	return 0
}

func writeFile(out *bufio.Writer, f File) {
	fmt.Fprintln(out, f.Path)
	fmt.Fprintln(out, f.Size)
	fmt.Fprintln(out, f.Reads)
	fmt.Fprintln(out, zipFlag(f.Zip))
	fmt.Fprintln(out, f.Format)
}

/*
Write appends feed to the descriptor at path, creating it if necessary.

Write does not truncate an existing descriptor. Callers that start a
fresh run are expected to clear the split directory first.
*/
func Write(path string, feed *Readfeed) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return errors.Wrap(err, "while opening readfeed")
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = errors.Wrapf(nerr, "while closing readfeed %v", path)
		}
	}()
	out := bufio.NewWriter(f)
	fmt.Fprint(out, header)
	if feed.RunID != "" {
		fmt.Fprintln(out, "# run", feed.RunID)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, feed.Time.Format(TimeLayout))
	fmt.Fprintln(out, len(feed.Originals))
	fmt.Fprintln(out, feed.Senses)
	fmt.Fprintln(out, feed.Splits)
	fmt.Fprintln(out, feed.TotalReads)
	for _, file := range feed.Originals {
		writeFile(out, file)
	}
	for _, file := range feed.SplitFiles {
		writeFile(out, file)
	}
	return errors.Wrapf(out.Flush(), "while writing readfeed %v", path)
}

type lineScanner struct {
	*bufio.Scanner
	path   string
	lineNr int
	runID  string
	blocks int
}

// next returns the next data line, skipping comments and empty lines.
func (sc *lineScanner) next() (string, bool) {
	for sc.Scan() {
		sc.lineNr++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '#' {
			if line == headerStart {
				sc.blocks++
				sc.runID = ""
			}
			if id := strings.TrimPrefix(line, "# run "); id != line {
				sc.runID = id
			}
			continue
		}
		return line, true
	}
	return "", false
}

func (sc *lineScanner) errorf(format string, args ...interface{}) error {
	return errors.Errorf("%v:%v: %v", sc.path, sc.lineNr, fmt.Sprintf(format, args...))
}

func (sc *lineScanner) int(what string) (int64, error) {
	line, ok := sc.next()
	if !ok {
		return 0, sc.errorf("missing %v", what)
	}
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil || n < 0 {
		return 0, sc.errorf("invalid %v %q", what, line)
	}
	return n, nil
}

// record parses the rest of the five-line record starting with path.
func (sc *lineScanner) record(path string) (f File, err error) {
	f.Path = path
	if f.Size, err = sc.int("file size"); err != nil {
		return f, err
	}
	if f.Reads, err = sc.int("read count"); err != nil {
		return f, err
	}
	zip, err := sc.int("zip flag")
	if err != nil {
		return f, err
	}
	switch zip {
	case 0:
	case 1:
		f.Zip = true
	default:
		return f, sc.errorf("invalid zip flag %v", zip)
	}
	format, ok := sc.next()
	if !ok {
		return f, sc.errorf("missing format")
	}
	if format != Fastq && format != Fasta {
		return f, sc.errorf("invalid format %q", format)
	}
	f.Format = format
	return f, nil
}

// block parses the global lines of one descriptor, starting with its
// timestamp. It returns the announced number of original files.
func (sc *lineScanner) block(stamp string) (feed *Readfeed, originals int64, err error) {
	feed = new(Readfeed)
	if feed.Time, err = time.ParseInLocation(TimeLayout, stamp, time.Local); err != nil {
		return nil, 0, sc.errorf("invalid timestamp %q", stamp)
	}
	if originals, err = sc.int("original file count"); err != nil {
		return nil, 0, err
	}
	senses, err := sc.int("sense count")
	if err != nil {
		return nil, 0, err
	}
	splits, err := sc.int("split count")
	if err != nil {
		return nil, 0, err
	}
	feed.Senses, feed.Splits = int(senses), int(splits)
	if feed.TotalReads, err = sc.int("total read count"); err != nil {
		return nil, 0, err
	}
	feed.RunID = sc.runID
	return feed, originals, nil
}

func (sc *lineScanner) checkOriginals(feed *Readfeed, originals int64) error {
	if int64(len(feed.Originals)) != originals {
		return sc.errorf("expected %v original files, found %v", originals, len(feed.Originals))
	}
	return nil
}

/*
Read parses the descriptor at path.

Write appends, so a file may hold several descriptors, each starting
with the format comment that Write emits. Read checks every descriptor
and returns the last one.
*/
func Read(path string) (feed *Readfeed, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil && nerr != nil {
			err = nerr
		}
	}()
	sc := &lineScanner{Scanner: bufio.NewScanner(file), path: path}
	stamp, ok := sc.next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, errors.Wrapf(err, "while reading %v", path)
		}
		return nil, sc.errorf("empty readfeed")
	}
	feed, originals, err := sc.block(stamp)
	if err != nil {
		return nil, err
	}
	block := sc.blocks
	for {
		line, ok := sc.next()
		if !ok {
			break
		}
		if sc.blocks != block {
			if err := sc.checkOriginals(feed, originals); err != nil {
				return nil, err
			}
			if feed, originals, err = sc.block(line); err != nil {
				return nil, err
			}
			block = sc.blocks
			continue
		}
		f, err := sc.record(line)
		if err != nil {
			return nil, err
		}
		if int64(len(feed.Originals)) < originals {
			feed.Originals = append(feed.Originals, f)
		} else {
			feed.SplitFiles = append(feed.SplitFiles, f)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "while reading %v", path)
	}
	if err := sc.checkOriginals(feed, originals); err != nil {
		return nil, err
	}
	return feed, nil
}

// Ready reports whether feed describes a completed split of the given
// original files into the expected split files. Sizes of split files are
// not known in advance, so they are checked against the file system
// instead of the expected records.
func (feed *Readfeed) Ready(originals, splits []File, numSplits int) bool {
	if feed.Splits != numSplits ||
		feed.Senses != len(originals) ||
		len(feed.Originals) != len(originals) ||
		len(feed.SplitFiles) != len(splits) {
		return false
	}
	var total int64
	for i, f := range originals {
		if feed.Originals[i] != f {
			return false
		}
		total += f.Reads
	}
	if feed.TotalReads != total {
		return false
	}
	for i, f := range splits {
		recorded := feed.SplitFiles[i]
		if recorded.Path != f.Path || recorded.Reads != f.Reads ||
			recorded.Zip != f.Zip || recorded.Format != f.Format {
			return false
		}
		info, err := os.Stat(recorded.Path)
		if err != nil || info.Size() != recorded.Size {
			return false
		}
	}
	return true
}
