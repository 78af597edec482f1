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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRapidgzip honors the counting and range modes of the real tool on
// uncompressed input. A range starting at the line offset in
// FQSPLIT_FAIL_OFFSET fails.
const fakeRapidgzip = `#!/bin/sh
count=0
ranges=
while [ $# -gt 0 ]; do
	case "$1" in
	--count-lines) count=1 ;;
	-P) shift ;;
	--ranges) shift; ranges=$1 ;;
	-d|-c) ;;
	*) file=$1 ;;
	esac
	shift
done
if [ $count = 1 ]; then
	echo "Number of lines: $(wc -l < "$file" | tr -d ' ')"
	exit 0
fi
lines=${ranges%%L@*}
offset=${ranges#*@}
offset=${offset%L}
if [ -n "$FQSPLIT_FAIL_OFFSET" ] && [ "$offset" = "$FQSPLIT_FAIL_OFFSET" ]; then
	echo "injected failure" >&2
	exit 1
fi
tail -n +$((offset + 1)) "$file" | head -n "$lines"
`

const fakePigz = "#!/bin/sh\nexec cat\n"

func writeScript(t *testing.T, dir, name, script string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

// newTestJob returns a job using the fake tools, with its working
// directory in a fresh temporary directory.
func newTestJob(t *testing.T, splits int, files ...string) *SplitJob {
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(bin, 0700))
	return &SplitJob{
		Files:     files,
		Splits:    splits,
		Workdir:   filepath.Join(dir, "work"),
		Rapidgzip: writeScript(t, bin, "rapidgzip", fakeRapidgzip),
		Pigz:      writeScript(t, bin, "pigz", fakePigz),
	}
}

// writeFastq writes reads records named prefix0, prefix1, ... followed
// by extraLines additional lines.
func writeFastq(t *testing.T, path, prefix string, reads, extraLines int) string {
	f, err := os.Create(path)
	require.NoError(t, err)
	out := bufio.NewWriter(f)
	for i := 0; i < reads; i++ {
		fmt.Fprintf(out, "@%v%v\nACGT\n+\nIIII\n", prefix, i)
	}
	for i := 0; i < extraLines; i++ {
		fmt.Fprintln(out, "dangling")
	}
	require.NoError(t, out.Flush())
	require.NoError(t, f.Close())
	return path
}

// readNames returns the read names in an uncompressed FASTQ file.
func readNames(t *testing.T, path string) []string {
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	var names []string
	for i, line := range strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n") {
		if line != "" && i%LinesPerRecord == 0 {
			names = append(names, strings.TrimPrefix(line, "@"))
		}
	}
	return names
}
