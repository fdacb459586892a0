// Package router implements the Query Router (spec §4.2): intent
// classification, cross-engine orchestration, result merging, and
// per-query logging.
package router

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// fingerprint computes a cache/dedup key for (tenant, query, opts).
// Deliberately cheap and non-cryptographic (FNV-1a) — this is a lookup
// key, not a security boundary.
func fingerprint(tenantID, query string, limit int, forceKind string) string {
	h := fnv.New64a()

	h.Write([]byte(tenantID))
	h.Write([]byte{'|'})
	h.Write([]byte(normalizeQuery(query)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte{'|'})
	h.Write([]byte(forceKind))

	return strconv.FormatUint(h.Sum64(), 16)
}

// normalizeQuery lowercases and collapses whitespace so trivially
// different inputs ("Find Bob", "find  bob") share a cache entry.
func normalizeQuery(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	return strings.Join(fields, " ")
}
