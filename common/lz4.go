// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4 frames the equity-curve snapshot column and cache entries. Snapshot
// JSON is repetitive field names and digits, so it shrinks well.

// Compress frames in as an lz4 stream.
func Compress(in []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(in)/2+64))
	zw := lz4.NewWriter(buf)
	if _, err := zw.Write(in); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress expands an lz4 frame produced by Compress.
func Decompress(in []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(in)*4))
	if _, err := io.Copy(buf, lz4.NewReader(bytes.NewReader(in))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
