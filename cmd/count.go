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

package cmd

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/exascience/fqsplit/fastq"
	"github.com/exascience/fqsplit/tools"
)

// CountHelp is the help string for this command.
const CountHelp = "Count parameters:\n" +
	"fqsplit count -f fastq-file [-f fastq-file]\n" +
	"[--size-per-thread nr]\n" +
	"[--rapidgzip path]\n" +
	"[--parallel]\n" +
	"[--strict-records]\n" +
	"[--log-path path]\n"

// Count implements the fqsplit count command.
func Count() error {
	var (
		files                   fileList
		sizePerThread           int64
		rapidgzip, logPath      string
		parallel, strictRecords bool
	)

	var flags flag.FlagSet

	flags.Var(&files, "f", "input fastq file, give twice for paired-end reads")
	flags.Int64Var(&sizePerThread, "size-per-thread", tools.DefaultSizePerThread, "number of bytes per decompression thread")
	flags.StringVar(&rapidgzip, "rapidgzip", "", "path to the rapidgzip executable")
	flags.StringVar(&rapidgzip, "rapidgz", "", "path to the rapidgzip executable")
	flags.BoolVar(&parallel, "parallel", false, "count all files at the same time")
	flags.BoolVar(&strictRecords, "strict-records", false, "fail when a line count is not a multiple of 4")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 2, CountHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	switch len(files) {
	case 0:
		log.Println("Error: Missing input file, use -f.")
		sanityChecksFailed = true
	case 1, 2:
		for _, file := range files {
			if !checkExist("-f", file) {
				sanityChecksFailed = true
			}
		}
	default:
		log.Println("Error: At most two input files (forward and reverse) can be counted, got", len(files))
		sanityChecksFailed = true
	}

	if sizePerThread < 1 {
		log.Println("Error: Invalid size per thread: ", sizePerThread)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CountHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " count")
	for _, file := range files {
		fmt.Fprint(&command, " -f ", file)
	}
	fmt.Fprint(&command, " --size-per-thread ", sizePerThread)
	if rapidgzip != "" {
		fmt.Fprint(&command, " --rapidgzip ", rapidgzip)
	}
	if parallel {
		fmt.Fprint(&command, " --parallel")
	}
	if strictRecords {
		fmt.Fprint(&command, " --strict-records")
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	log.Println("Executing command:\n", command.String())

	job := &fastq.SplitJob{
		Files:         files,
		SizePerThread: sizePerThread,
		Rapidgzip:     rapidgzip,
		ParallelCount: parallel,
		StrictRecords: strictRecords,
	}
	if err := job.ResolveDecompressor(); err != nil {
		return err
	}
	stats, err := job.SampleFiles()
	var mismatch *fastq.PairMismatchError
	if err != nil && !errors.As(err, &mismatch) {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	for _, file := range stats {
		fmt.Fprintf(out, "%v\t%v\t%v\n", file.Path, file.Lines, file.Reads)
	}
	if ferr := out.Flush(); ferr != nil {
		return ferr
	}
	return err
}
