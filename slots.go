// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import "encoding/json"

// resultTable carries a function result from script code back to the host.
// Every stored value gets a fresh monotonically increasing slot id, so a
// stale value left behind by an earlier call can never be mistaken for the
// result of the current one. All access happens on the calling goroutine
// while the Session mutex is held, so no locking is needed here.
type resultTable struct {
	next    uint64
	entries map[uint64]json.RawMessage
}

func newResultTable() *resultTable {
	return &resultTable{next: 1, entries: make(map[uint64]json.RawMessage)}
}

// nextID returns the slot id the next put will use.
func (t *resultTable) nextID() uint64 { return t.next }

// put stores a value under a fresh slot id and returns that id.
func (t *resultTable) put(value json.RawMessage) uint64 {
	id := t.next
	t.next++
	t.entries[id] = value
	return id
}

// take removes and returns the value stored under id.
func (t *resultTable) take(id uint64) (json.RawMessage, bool) {
	value, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return value, ok
}

// purge drops any values never consumed by earlier calls. Slot ids are not
// reused; only the stored values are released.
func (t *resultTable) purge() {
	for id := range t.entries {
		delete(t.entries, id)
	}
}
