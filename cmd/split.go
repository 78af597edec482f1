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
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/fqsplit/fastq"
	"github.com/exascience/fqsplit/tools"
)

// SplitHelp is the help string for this command.
const SplitHelp = "Split parameters:\n" +
	"fqsplit split -f fastq-file [-f fastq-file] -s nr-of-splits -w /path/to/workdir/\n" +
	"[-c size-per-thread]\n" +
	"[--rapidgz path]\n" +
	"[--pigz path]\n" +
	"[--config job-file]\n" +
	"[--parallel-splits nr]\n" +
	"[--parallel-count]\n" +
	"[--strict-records]\n" +
	"[--allow-pair-mismatch]\n" +
	"[--force]\n" +
	"[--progress]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Split implements the fqsplit split command.
func Split() error {
	var (
		files                                                  fileList
		splits, parallelSplits                                 int
		sizePerThread                                          int64
		workdir, rapidgzip, pigz, config, profile, logPath     string
		parallelCount, strictRecords, allowPairMismatch, force bool
		progress, timed                                        bool
	)

	var flags flag.FlagSet

	flags.Var(&files, "f", "input fastq file, give twice for paired-end reads")
	flags.IntVar(&splits, "s", 0, "number of splits per file")
	flags.Int64Var(&sizePerThread, "c", tools.DefaultSizePerThread, "number of bytes per decompression or compression thread")
	flags.StringVar(&workdir, "w", "", "working directory, splits are written to its readb subdirectory")
	flags.StringVar(&rapidgzip, "rapidgz", "", "path to the rapidgzip executable")
	flags.StringVar(&rapidgzip, "rapidgzip", "", "path to the rapidgzip executable")
	flags.StringVar(&pigz, "pigz", "", "path to the pigz executable")
	flags.StringVar(&config, "config", "", "read the split job from a yaml file, other flags override its entries")
	flags.IntVar(&parallelSplits, "parallel-splits", 0, "number of split pipelines to run at the same time")
	flags.BoolVar(&parallelCount, "parallel-count", false, "count the reads of paired files at the same time")
	flags.BoolVar(&strictRecords, "strict-records", false, "fail when a line count is not a multiple of 4")
	flags.BoolVar(&allowPairMismatch, "allow-pair-mismatch", false, "continue when paired files have different read counts")
	flags.BoolVar(&force, "force", false, "split again even when the working directory holds a matching split")
	flags.BoolVar(&progress, "progress", false, "show a progress bar")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 2, SplitHelp)

	setLogOutput(logPath)

	job := new(fastq.SplitJob)
	if config != "" {
		if !checkExist("--config", config) {
			fmt.Fprint(os.Stderr, SplitHelp)
			os.Exit(1)
		}
		var err error
		if job, err = fastq.LoadSplitJob(config); err != nil {
			return err
		}
		if job.SizePerThread == 0 {
			job.SizePerThread = tools.DefaultSizePerThread
		}
	}
	override := func(name string, apply func()) {
		if config == "" || isSet(&flags, name) {
			apply()
		}
	}
	override("f", func() { job.Files = files })
	override("s", func() { job.Splits = splits })
	override("c", func() { job.SizePerThread = sizePerThread })
	override("w", func() { job.Workdir = workdir })
	if config == "" || isSet(&flags, "rapidgz") || isSet(&flags, "rapidgzip") {
		job.Rapidgzip = rapidgzip
	}
	override("pigz", func() { job.Pigz = pigz })
	override("parallel-splits", func() { job.ParallelSplits = parallelSplits })
	override("parallel-count", func() { job.ParallelCount = parallelCount })
	override("strict-records", func() { job.StrictRecords = strictRecords })
	override("allow-pair-mismatch", func() { job.AllowPairMismatch = allowPairMismatch })
	override("force", func() { job.Force = force })

	// sanity checks

	var sanityChecksFailed bool

	switch len(job.Files) {
	case 0:
		log.Println("Error: Missing input file, use -f.")
		sanityChecksFailed = true
	case 1, 2:
		for _, file := range job.Files {
			if !checkExist("-f", file) {
				sanityChecksFailed = true
			}
		}
	default:
		log.Println("Error: At most two input files (forward and reverse) can be split, got", len(job.Files))
		sanityChecksFailed = true
	}

	if job.Splits < 1 {
		log.Println("Error: Invalid number of splits ", job.Splits, ", use -s with a positive number.")
		sanityChecksFailed = true
	}

	if job.SizePerThread < 1 {
		log.Println("Error: Invalid size per thread: ", job.SizePerThread)
		sanityChecksFailed = true
	}

	if job.Workdir == "" {
		log.Println("Error: Missing working directory, use -w.")
		sanityChecksFailed = true
	} else if !checkDirectory("-w", job.Workdir) {
		sanityChecksFailed = true
	}

	if job.ParallelSplits < 0 {
		log.Println("Error: Invalid number of parallel splits: ", job.ParallelSplits)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SplitHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " split")
	for _, file := range job.Files {
		fmt.Fprint(&command, " -f ", file)
	}
	fmt.Fprint(&command, " -s ", job.Splits, " -c ", job.SizePerThread, " -w ", job.Workdir)
	if job.Rapidgzip != "" {
		fmt.Fprint(&command, " --rapidgz ", job.Rapidgzip)
	}
	if job.Pigz != "" {
		fmt.Fprint(&command, " --pigz ", job.Pigz)
	}
	if job.ParallelSplits > 0 {
		fmt.Fprint(&command, " --parallel-splits ", job.ParallelSplits)
	}
	if job.ParallelCount {
		fmt.Fprint(&command, " --parallel-count")
	}
	if job.StrictRecords {
		fmt.Fprint(&command, " --strict-records")
	}
	if job.AllowPairMismatch {
		fmt.Fprint(&command, " --allow-pair-mismatch")
	}
	if job.Force {
		fmt.Fprint(&command, " --force")
	}
	if progress {
		fmt.Fprint(&command, " --progress")
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	log.Println("Executing command:\n", command.String())

	var step func()
	if progress {
		bar := newProgressBar(job.Splits * len(job.Files))
		defer bar.Finish()
		step = func() { bar.Increment() }
	}

	return timedRun(timed, profile, "Splitting reads.", 1, func() error {
		return job.Run(step)
	})
}
