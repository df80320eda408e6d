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
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

var cache *lru.Cache

// SetupCache creates the in-process LRU used to memoize market-data loads on
// the server path. Size comes from cache.local_size (default 64 entries).
func SetupCache() {
	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = 64
	}

	var err error
	cache, err = lru.New(size)
	if err != nil {
		log.Panic().Err(err).Msg("could not create LRU cache")
	}
}

// CacheKey derives a stable key from its parts using blake3.
func CacheKey(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// CacheSet stores bytes under key, lz4 compressed. A nil cache is a no-op so
// CLI paths need not call SetupCache.
func CacheSet(key string, bytes []byte) error {
	if cache == nil {
		return nil
	}
	b2, err := Compress(bytes)
	if err != nil {
		return err
	}
	cache.Add(key, b2)
	return nil
}

// CacheGet retrieves bytes stored under key.
func CacheGet(key string) ([]byte, bool) {
	if cache == nil {
		return nil, false
	}
	v, ok := cache.Get(key)
	if !ok {
		return nil, false
	}
	raw, err := Decompress(v.([]byte))
	if err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("could not decompress cache entry")
		return nil, false
	}
	return raw, true
}
