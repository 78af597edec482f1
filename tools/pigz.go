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

// Pigz is a parallel gzip compressor.
type Pigz struct {
	Path string
}

// CompressCommand returns the command that compresses its standard
// input to its standard output.
func (p Pigz) CompressCommand(threads int) Command {
	args := append([]string{"-c"}, threadArgs("-p", threads)...)
	return Command{Stage: StageCompress, Path: p.Path, Args: args}
}
