// Package tandem provides a thin composite cache combining pkg/memcache
// in front of pkg/diskcache. It is convenience wiring, not hard
// engineering — both tiers are complete and independently usable
// without this package; Cache exists only to save callers from writing
// the same read-through/write-through glue themselves.
package tandem
