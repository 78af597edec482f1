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

import "os/exec"

// Default tool names looked up in PATH.
const (
	DecompressorName = "rapidgzip"
	CompressorName   = "pigz"
)

// Resolve returns the executable to run for tool. An explicit name or
// path takes precedence over tool; names without a slash are looked up in
// the directories named by the PATH environment variable.
func Resolve(tool, explicit string) (string, error) {
	name := tool
	if explicit != "" {
		name = explicit
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &ToolNotFoundError{Tool: tool, Path: explicit, Err: err}
	}
	return path, nil
}
