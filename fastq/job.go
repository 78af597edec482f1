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
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/exascience/fqsplit/readfeed"
	"github.com/exascience/fqsplit/tools"
)

// SplitSubdirectory is the subdirectory of a working directory that
// holds the split files and their readfeed descriptor.
const SplitSubdirectory = "readb"

// SplitDir returns the directory holding the split files for workdir.
func SplitDir(workdir string) string {
	return filepath.Join(workdir, SplitSubdirectory)
}

// DescriptorPath returns the path of the readfeed descriptor for workdir.
func DescriptorPath(workdir string) string {
	return filepath.Join(SplitDir(workdir), readfeed.Name)
}

/*
A SplitJob carries all the settings of one split run. It is passed
explicitly through sampling, planning, execution, and descriptor
writing.

A SplitJob can be loaded from a YAML file with LoadSplitJob, and
individual fields can then be overridden from the command line.
*/
type SplitJob struct {
	// Files lists the forward, and for paired-end reads the reverse, read file.
	Files []string `yaml:"files"`
	// Splits is the number of splits per file.
	Splits int `yaml:"splits"`
	// SizePerThread is the ThreadBudget threshold in bytes.
	SizePerThread int64 `yaml:"size_per_thread"`
	// Workdir is the working directory; splits go to SplitDir(Workdir).
	Workdir string `yaml:"workdir"`
	// Rapidgzip and Pigz optionally name the external tools.
	Rapidgzip string `yaml:"rapidgzip"`
	Pigz      string `yaml:"pigz"`
	// ParallelSplits is the number of split pipelines run at the same time.
	ParallelSplits int `yaml:"parallel_splits"`
	// ParallelCount counts the lines of all files at the same time.
	ParallelCount bool `yaml:"parallel_count"`
	// StrictRecords turns a line count that is not a multiple of 4 into an error.
	StrictRecords bool `yaml:"strict_records"`
	// AllowPairMismatch continues when paired files differ in read count.
	AllowPairMismatch bool `yaml:"allow_pair_mismatch"`
	// Force splits again even when the working directory holds a matching readfeed.
	Force bool `yaml:"force"`

	RunID string `yaml:"-"`

	runner       tools.Runner
	decompressor tools.Rapidgzip
	compressor   tools.Pigz
}

// LoadSplitJob reads a SplitJob from a YAML file.
func LoadSplitJob(path string) (*SplitJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "while reading job file")
	}
	job := new(SplitJob)
	if err := yaml.Unmarshal(data, job); err != nil {
		return nil, errors.Wrapf(err, "while parsing job file %v", path)
	}
	return job, nil
}

// Validate checks the settings that do not depend on the file system.
func (job *SplitJob) Validate() error {
	switch len(job.Files) {
	case 1, 2:
	default:
		return errors.Errorf("expected one or two read files, got %v", len(job.Files))
	}
	if job.Splits < 1 {
		return errors.Errorf("invalid number of splits %v", job.Splits)
	}
	if job.SizePerThread < 0 {
		return errors.Errorf("invalid size per thread %v", job.SizePerThread)
	}
	if job.ParallelSplits < 0 {
		return errors.Errorf("invalid number of parallel splits %v", job.ParallelSplits)
	}
	if job.Workdir == "" {
		return errors.New("missing working directory")
	}
	return nil
}

// ResolveDecompressor locates the decompressor.
func (job *SplitJob) ResolveDecompressor() error {
	path, err := tools.Resolve(tools.DecompressorName, job.Rapidgzip)
	if err != nil {
		return err
	}
	job.decompressor = tools.Rapidgzip{Path: path}
	return nil
}

// ResolveTools locates the decompressor and the compressor.
func (job *SplitJob) ResolveTools() error {
	if err := job.ResolveDecompressor(); err != nil {
		return err
	}
	path, err := tools.Resolve(tools.CompressorName, job.Pigz)
	if err != nil {
		return err
	}
	job.compressor = tools.Pigz{Path: path}
	return nil
}

// SplitDir returns the directory holding the split files of job.
func (job *SplitJob) SplitDir() string {
	return SplitDir(job.Workdir)
}

// DescriptorPath returns the path of the readfeed descriptor of job.
func (job *SplitJob) DescriptorPath() string {
	return DescriptorPath(job.Workdir)
}

func (job *SplitJob) ensureRunID() {
	if job.RunID == "" {
		job.RunID = uuid.New().String()
	}
}
