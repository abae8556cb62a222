// Package mapcache is a process-wide cache of decoded mapping tables.
//
// The same encoded mappings string is frequently decoded many times: a
// shared original file is referenced from many composed outputs, and every
// composition that touches it needs the decoded table. Decoding is a pure
// function of its input, so the cache is keyed by a content fingerprint of
// the encoded string and concurrent callers racing on the same input are
// allowed to decode twice rather than block each other; either result wins.
package mapcache

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gopherjs/sources/sourcemap"
)

// Key is a content fingerprint used as a cache key.
type Key = [sha256.Size]byte

// maxEntries bounds the cache. A decoded table for a large bundle runs to a
// few MB, so an unbounded map would grow with every distinct input ever
// seen by the process.
const maxEntries = 4096

var decoded = func() *lru.Cache[Key, []sourcemap.Mapping] {
	c, err := lru.New[Key, []sourcemap.Mapping](maxEntries)
	if err != nil {
		panic(err) // Only fails for non-positive sizes.
	}
	return c
}()

// Fingerprint computes the content fingerprint of the given parts.
func Fingerprint(parts ...string) Key {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	var key Key
	h.Sum(key[:0])
	return key
}

// Decode returns the decoded table for an encoded mappings string, reusing
// a previously decoded table when one is cached. Decode errors are returned
// to the caller and never cached.
//
// The returned slice is shared between all callers and must not be modified.
func Decode(mappings string) ([]sourcemap.Mapping, error) {
	key := Fingerprint(mappings)
	if table, ok := decoded.Get(key); ok {
		return table, nil
	}
	table, err := sourcemap.DecodeMappings(mappings)
	if err != nil {
		return nil, err
	}
	decoded.Add(key, table)
	return table, nil
}
