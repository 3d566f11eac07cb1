// Package jsondb provides a generic, concurrent-safe store for a collection of
// rows persisted as a single JSON document.
//
// # Overview
//
// [Store] keeps no cache: every [Store.Load] re-reads the file so callers always
// observe the latest committed state. Writes never modify the file in place;
// the new content is written to a temporary file in the same directory, synced
// and renamed over the canonical path, so a concurrent reader sees either the
// previous or the new content, never a partial one.
//
// # Concurrency: Write Queue
//
// All writes of a Store go through a single worker goroutine draining a FIFO
// queue. [Store.Save] and [Store.Modify] block until their task ran and return
// that task's error; a failed task does not affect the ones queued after it.
// [Store.Modify] performs the read, the caller's transformation and the write
// inside one task, which makes read-modify-write sequences from the same
// process atomic with respect to each other. Reads are not queued.
//
// No locking is performed across processes.
//
// # File Format
//
//	{
//	  "version": "1",
//	  "last_id": 3,
//	  "rows": [ ... ]
//	}
//
// last_id is the highest ID ever written; it is never lowered so IDs of
// deleted rows are not handed out again. A bare JSON array of rows is accepted
// on read and upgraded on the next write.
package jsondb
