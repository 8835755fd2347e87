// Package cache implements an expiring key/value cache backed by a blob store.
//
// The table lives in memory for the lifetime of a Cache. Open hydrates it from
// the store once; every write compacts expired entries away and rewrites the
// whole table to the store before the new state becomes visible. A store that
// is missing, unreadable or corrupt is treated as empty.
package cache
