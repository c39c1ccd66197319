package plover

// Close stops serving. Queries and rebuilds return ErrClosed afterwards;
// queries already running finish on their snapshot.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	db.current.Store(nil)
	return nil
}
