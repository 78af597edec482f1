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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/fqsplit/readfeed"
	"github.com/exascience/fqsplit/tools"
)

func names(prefix string, from, to int) (result []string) {
	for i := from; i < to; i++ {
		result = append(result, prefix+strconv.Itoa(i))
	}
	return result
}

func splitBases(feed *readfeed.Readfeed) (bases []string) {
	for _, f := range feed.SplitFiles {
		bases = append(bases, filepath.Base(f.Path))
	}
	return bases
}

func TestRunPaired(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFastq(t, filepath.Join(dir, "r1.fq.gz"), "f", 10, 0)
	rev := writeFastq(t, filepath.Join(dir, "r2.fq.gz"), "r", 10, 0)
	job := newTestJob(t, 2, fwd, rev)
	require.NoError(t, job.Run(nil))

	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, job.RunID, feed.RunID)
	assert.Equal(t, 2, feed.Senses)
	assert.Equal(t, 2, feed.Splits)
	assert.Equal(t, int64(20), feed.TotalReads)
	require.Len(t, feed.Originals, 2)
	assert.Equal(t, fwd, feed.Originals[0].Path)
	assert.Equal(t, rev, feed.Originals[1].Path)
	assert.True(t, feed.Originals[0].Zip)

	assert.Equal(t, []string{"fwd_0.fq.gz", "rev_0.fq.gz", "fwd_1.fq.gz", "rev_1.fq.gz"}, splitBases(feed))
	for _, f := range feed.SplitFiles {
		assert.Equal(t, int64(5), f.Reads)
		assert.True(t, f.Zip)
		assert.Equal(t, readfeed.Fastq, f.Format)
		info, err := os.Stat(f.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), f.Size)
	}
	assert.Equal(t, names("f", 0, 5), readNames(t, feed.SplitFiles[0].Path))
	assert.Equal(t, names("r", 0, 5), readNames(t, feed.SplitFiles[1].Path))
	assert.Equal(t, names("f", 5, 10), readNames(t, feed.SplitFiles[2].Path))
	assert.Equal(t, names("r", 5, 10), readNames(t, feed.SplitFiles[3].Path))
	assert.NoError(t, Verify(feed, false))
}

func TestRunRemainder(t *testing.T) {
	path := writeFastq(t, filepath.Join(t.TempDir(), "r.fq"), "r", 11, 0)
	for _, parallelSplits := range []int{0, 3, 16} {
		job := newTestJob(t, 4, path)
		job.ParallelSplits = parallelSplits
		calls := 0
		progress := make(chan struct{}, 4)
		require.NoError(t, job.Run(func() { progress <- struct{}{} }))
		close(progress)
		for range progress {
			calls++
		}
		assert.Equal(t, 4, calls)

		feed, err := readfeed.Read(job.DescriptorPath())
		require.NoError(t, err)
		assert.Equal(t, 1, feed.Senses)
		require.Len(t, feed.SplitFiles, 4)
		from := 0
		for i, reads := range []int{3, 3, 3, 2} {
			f := feed.SplitFiles[i]
			assert.Equal(t, fmt.Sprintf("fwd_%v.fq.gz", i), filepath.Base(f.Path))
			assert.Equal(t, int64(reads), f.Reads)
			assert.Equal(t, names("r", from, from+reads), readNames(t, f.Path), "parallel=%v split %v", parallelSplits, i)
			from += reads
		}
	}
}

func TestRunMoreSplitsThanReads(t *testing.T) {
	path := writeFastq(t, filepath.Join(t.TempDir(), "r.fq"), "r", 2, 0)
	job := newTestJob(t, 3, path)
	require.NoError(t, job.Run(nil))
	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	require.Len(t, feed.SplitFiles, 3)
	assert.Equal(t, int64(0), feed.SplitFiles[2].Reads)
	assert.Equal(t, int64(0), feed.SplitFiles[2].Size)
	assert.NoError(t, Verify(feed, false))
}

func TestRunClearsStaleSplits(t *testing.T) {
	path := writeFastq(t, filepath.Join(t.TempDir(), "r.fq"), "r", 4, 0)
	job := newTestJob(t, 1, path)
	require.NoError(t, os.MkdirAll(job.SplitDir(), 0700))
	stale := filepath.Join(job.SplitDir(), SplitName(Forward, 7))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0600))
	require.NoError(t, os.WriteFile(job.DescriptorPath(), []byte("# old run\n"), 0600))

	require.NoError(t, job.Run(nil))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"fwd_0.fq.gz"}, splitBases(feed))
}

func TestRunSkipsReadySplit(t *testing.T) {
	path := writeFastq(t, filepath.Join(t.TempDir(), "r.fq"), "r", 8, 0)
	job := newTestJob(t, 2, path)
	require.NoError(t, job.Run(nil))
	first := job.RunID

	again := *job
	again.RunID = ""
	require.NoError(t, again.Run(nil))
	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, first, feed.RunID, "ready split must not be redone")

	again.RunID = ""
	again.Force = true
	require.NoError(t, again.Run(nil))
	feed, err = readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.NotEqual(t, first, feed.RunID)

	again.RunID = ""
	again.Force = false
	again.Splits = 3
	require.NoError(t, again.Run(nil))
	feed, err = readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, 3, feed.Splits, "changed split count must redo the split")
}

func TestRunSplitFailure(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFastq(t, filepath.Join(dir, "r1.fq"), "f", 9, 0)
	rev := writeFastq(t, filepath.Join(dir, "r2.fq"), "r", 9, 0)
	job := newTestJob(t, 3, fwd, rev)
	job.ParallelSplits = 2
	// Split 1 of both files starts at line 12.
	t.Setenv("FQSPLIT_FAIL_OFFSET", "12")

	err := job.Run(nil)
	var failures SplitFailures
	require.True(t, errors.As(err, &failures))
	require.Len(t, failures, 2)
	for s, failure := range failures {
		assert.Equal(t, 1, failure.Index)
		assert.Equal(t, Sense(s), failure.Sense)
		var stage *tools.StageError
		require.True(t, errors.As(failure, &stage))
		assert.Equal(t, tools.StageDecompress, stage.Cmd.Stage)
		assert.Contains(t, failure.Error(), "injected failure")
	}

	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"fwd_0.fq.gz", "rev_0.fq.gz", "fwd_2.fq.gz", "rev_2.fq.gz"}, splitBases(feed))
	_, err = os.Stat(filepath.Join(job.SplitDir(), SplitName(Forward, 1)))
	assert.True(t, os.IsNotExist(err), "failed split output must be removed")
	assert.Error(t, Verify(feed, false))
}

func TestRunPairMismatch(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFastq(t, filepath.Join(dir, "r1.fq"), "f", 500, 0)
	rev := writeFastq(t, filepath.Join(dir, "r2.fq"), "r", 501, 0)
	job := newTestJob(t, 2, fwd, rev)

	err := job.Run(nil)
	var mismatch *PairMismatchError
	require.True(t, errors.As(err, &mismatch))
	_, err = os.Stat(job.SplitDir())
	assert.True(t, os.IsNotExist(err), "no split work before the mismatch is reported")

	job.AllowPairMismatch = true
	require.NoError(t, job.Run(nil))
	feed, err := readfeed.Read(job.DescriptorPath())
	require.NoError(t, err)
	assert.Equal(t, int64(1001), feed.TotalReads)
	require.Len(t, feed.SplitFiles, 4)
	assert.Equal(t, int64(250), feed.SplitFiles[0].Reads)
	assert.Equal(t, int64(251), feed.SplitFiles[1].Reads)
}

func TestRunToolNotFound(t *testing.T) {
	path := writeFastq(t, filepath.Join(t.TempDir(), "r.fq"), "r", 4, 0)
	job := newTestJob(t, 2, path)
	job.Pigz = filepath.Join(t.TempDir(), "pigz")

	err := job.Run(nil)
	var notFound *tools.ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, tools.CompressorName, notFound.Tool)
	_, err = os.Stat(job.Workdir)
	assert.True(t, os.IsNotExist(err), "no work before tools are resolved")
}

func TestRunInvalidJob(t *testing.T) {
	job := newTestJob(t, 0, "r.fq")
	assert.Error(t, job.Run(nil))
	job = newTestJob(t, 1, "r1.fq", "r2.fq", "r3.fq")
	assert.Error(t, job.Run(nil))
	job = newTestJob(t, 1)
	assert.Error(t, job.Run(nil))
}

func TestLoadSplitJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
files:
  - /data/r1.fq.gz
  - /data/r2.fq.gz
splits: 4
size_per_thread: 1000000
workdir: /scratch/run
pigz: /opt/bin/pigz
parallel_splits: 2
allow_pair_mismatch: true
`), 0600))
	job, err := LoadSplitJob(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/r1.fq.gz", "/data/r2.fq.gz"}, job.Files)
	assert.Equal(t, 4, job.Splits)
	assert.Equal(t, int64(1000000), job.SizePerThread)
	assert.Equal(t, "/scratch/run/readb/readfeed", job.DescriptorPath())
	assert.Equal(t, "/opt/bin/pigz", job.Pigz)
	assert.Empty(t, job.Rapidgzip)
	assert.Equal(t, 2, job.ParallelSplits)
	assert.True(t, job.AllowPairMismatch)
	assert.False(t, job.StrictRecords)
	assert.NoError(t, job.Validate())

	require.NoError(t, os.WriteFile(path, []byte("splits: [1"), 0600))
	_, err = LoadSplitJob(path)
	assert.Error(t, err)
}
