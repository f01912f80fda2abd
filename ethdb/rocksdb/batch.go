//go:build cgo
// +build cgo

package rocksdb

import "github.com/tecbot/gorocksdb"

type batch struct {
	db    *Database
	batch *gorocksdb.WriteBatch
	size  int
}

func (self *batch) Put(key, value []byte) error {
	self.batch.Put(key, value)
	self.size += len(value)
	return nil
}

func (self *batch) Delete(key []byte) error {
	self.batch.Delete(key)
	self.size += 1
	return nil
}

// Write commits the batch through rocksdb's atomic WriteBatch.
func (self *batch) Write() error {
	return self.db.db.Write(self.db.writeOpts, self.batch)
}

func (self *batch) ValueSize() int {
	return self.size
}

func (self *batch) Reset() {
	self.batch.Clear()
	self.size = 0
}
