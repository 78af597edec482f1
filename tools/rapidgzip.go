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

package tools

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Rapidgzip is a parallel gzip decompressor that can count lines and
// decompress line ranges without materializing the whole file.
type Rapidgzip struct {
	Path string
}

func threadArgs(flag string, threads int) []string {
	if threads <= 0 {
		return nil
	}
	return []string{flag, strconv.Itoa(threads)}
}

// CountCommand returns the command that prints the number of lines in
// file.
func (r Rapidgzip) CountCommand(file string, threads int) Command {
	args := append([]string{"--count-lines"}, threadArgs("-P", threads)...)
	return Command{Stage: StageCount, Path: r.Path, Args: append(args, file)}
}

// RangeCommand returns the command that writes lines [offset,
// offset+lines) of file, decompressed, to its standard output.
func (r Rapidgzip) RangeCommand(file string, threads int, lines, offset int64) Command {
	args := append([]string{"-d", "-c"}, threadArgs("-P", threads)...)
	args = append(args, "--ranges", fmt.Sprintf("%dL@%dL", lines, offset), file)
	return Command{Stage: StageDecompress, Path: r.Path, Args: args}
}

// CountLines returns the number of lines in file.
func (r Rapidgzip) CountLines(runner *Runner, file string, threads int) (int64, error) {
	out, err := runner.Output(r.CountCommand(file, threads))
	if err != nil {
		return 0, err
	}
	return parseCount(out)
}

// parseCount extracts the line count from the output of the counting
// mode. The count is the last integer field, so both a bare number and a
// labelled "Number of lines: n" are accepted.
func parseCount(out []byte) (int64, error) {
	fields := bytes.Fields(out)
	for i := len(fields) - 1; i >= 0; i-- {
		if n, err := strconv.ParseInt(string(fields[i]), 10, 64); err == nil {
			if n < 0 {
				break
			}
			return n, nil
		}
	}
	return 0, errors.Errorf("no line count in tool output %q", bytes.TrimSpace(out))
}
