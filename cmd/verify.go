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
	"github.com/exascience/fqsplit/readfeed"
)

// VerifyHelp is the help string for this command.
const VerifyHelp = "Verify parameters:\n" +
	"fqsplit verify /path/to/workdir/\n" +
	"[--recount]\n" +
	"[--log-path path]\n"

// Verify implements the fqsplit verify command.
func Verify() error {
	var (
		recount bool
		logPath string
	)

	var flags flag.FlagSet

	flags.BoolVar(&recount, "recount", false, "decompress every split and count its reads")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 3, VerifyHelp)
	workdir := getFilename(os.Args[2], VerifyHelp)

	setLogOutput(logPath)

	// sanity checks

	descriptor := fastq.DescriptorPath(workdir)
	if !checkExist("", descriptor) {
		fmt.Fprint(os.Stderr, VerifyHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " verify ", workdir)
	if recount {
		fmt.Fprint(&command, " --recount")
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	log.Println("Executing command:\n", command.String())

	feed, err := readfeed.Read(descriptor)
	if err != nil {
		return err
	}
	if err := fastq.Verify(feed, recount); err != nil {
		return err
	}
	log.Printf("%v is consistent: %v split(s) of %v read(s).\n", descriptor, len(feed.SplitFiles), feed.TotalReads)
	return nil
}
