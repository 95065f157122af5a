// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// block compression selection, snapshots, batches, range deletion and minimal
// metrics hooks. One DB is opened per process and shared by reference.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir:     "./data",
//	    Fsync:       pebblestore.FsyncModeAlways,
//	    Compression: pebblestore.CompressionSnappy,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("k"), []byte("v"))
//	v, _ := db.Get([]byte("k"))
//	_ = db.DeleteRange([]byte("a"), []byte("b"))
package pebblestore
