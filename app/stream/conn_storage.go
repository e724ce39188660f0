package stream

import (
	"sync"
)

// connDB indexes open connections by id and by console session.
type connDB struct {
	sync.RWMutex
	data      map[int64]*Conn
	bySession map[string]map[int64]struct{}
}

func newConnStorage() *connDB {
	return &connDB{
		data:      map[int64]*Conn{},
		bySession: map[string]map[int64]struct{}{},
	}
}

func (storage *connDB) Add(conn *Conn) {
	storage.Lock()
	defer storage.Unlock()

	storage.data[conn.id] = conn

	conns, ok := storage.bySession[conn.sid]
	if !ok {
		conns = map[int64]struct{}{}
		storage.bySession[conn.sid] = conns
	}
	conns[conn.id] = struct{}{}
}

func (storage *connDB) Get(id int64) *Conn {
	storage.RLock()
	defer storage.RUnlock()
	return storage.data[id]
}

func (storage *connDB) Count() int {
	storage.RLock()
	defer storage.RUnlock()
	return len(storage.data)
}

// ForSession calls action for every connection of the console session.
func (storage *connDB) ForSession(sid string, action func(conn *Conn)) {
	storage.RLock()
	defer storage.RUnlock()

	for id := range storage.bySession[sid] {
		action(storage.data[id])
	}
}

func (storage *connDB) Remove(id int64) *Conn {
	storage.Lock()
	defer storage.Unlock()

	conn, ok := storage.data[id]
	if !ok {
		return nil
	}

	delete(storage.data, id)
	if conns, ok := storage.bySession[conn.sid]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(storage.bySession, conn.sid)
		}
	}
	return conn
}

// RemoveSession drops every connection of the console session.
func (storage *connDB) RemoveSession(sid string) []*Conn {
	storage.Lock()
	defer storage.Unlock()

	ids := storage.bySession[sid]
	removed := make([]*Conn, 0, len(ids))
	for id := range ids {
		removed = append(removed, storage.data[id])
		delete(storage.data, id)
	}
	delete(storage.bySession, sid)
	return removed
}

func (storage *connDB) RemoveAll(callback func(conn *Conn)) {
	storage.Lock()
	defer storage.Unlock()

	for id, conn := range storage.data {
		delete(storage.data, id)
		callback(conn)
	}
	storage.bySession = map[string]map[int64]struct{}{}
}
