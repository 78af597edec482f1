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

package utils

import (
	"bufio"
	"io"

	"github.com/klauspost/pgzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip reports whether the given reader starts with the gzip magic
// bytes. It only peeks, so no input is consumed.
func IsGzip(buf *bufio.Reader) (bool, error) {
	head, err := buf.Peek(len(gzipMagic))
	if err == io.EOF {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return head[0] == gzipMagic[0] && head[1] == gzipMagic[1], nil
}

// HandleGzip checks if the given reader produces a gzip stream by
// looking at the initial bytes. It then either returns a pgzip reader
// decompressing blocks of blockSize bytes with up to blocks blocks in
// flight, or returns the given reader unchanged. The returned close
// function releases the decompressor, and is a no-op for plain input.
func HandleGzip(buf *bufio.Reader, blockSize, blocks int) (io.Reader, func() error, error) {
	ok, err := IsGzip(buf)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return buf, func() error { return nil }, nil
	}
	r, err := pgzip.NewReaderN(buf, blockSize, blocks)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}
