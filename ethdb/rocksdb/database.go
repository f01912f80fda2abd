//go:build cgo
// +build cgo

// Package rocksdb implements the ethdb.Database interface on top of
// tecbot/gorocksdb. It requires the rocksdb C library at build time.
package rocksdb

import (
	"github.com/patriciadb/patriciadb/common"
	"github.com/patriciadb/patriciadb/ethdb"
	"github.com/tecbot/gorocksdb"
)

type Database struct {
	writeOpts *gorocksdb.WriteOptions
	readOpts  *gorocksdb.ReadOptions
	db        *gorocksdb.DB
	tasks     chan func()
}

type Config struct {
	File                   string `json:"file"`
	ReadOnly               bool   `json:"readOnly"`
	ErrorIfExists          bool   `json:"errorIfExists"`
	DontCreateIfMissing    bool   `json:"dontCreateIfMissing"`
	MaxOpenFiles           int    `json:"maxOpenFiles"`
	BloomFilterCapacity    int    `json:"bloomFilterCapacity"`
	BlockCacheSize         uint64 `json:"blockCacheSize"`
	WriteBufferSize        int    `json:"writeBufferSize"`
	Parallelism            int    `json:"parallelism"`
	OptimizeForPointLookup uint64 `json:"optimizeForPointLookup"`
}

func New(cfg *Config) (*Database, error) {
	opts := gorocksdb.NewDefaultOptions()
	if cfg.OptimizeForPointLookup != 0 {
		opts.SetAllowConcurrentMemtableWrites(false)
		opts.OptimizeForPointLookup(cfg.OptimizeForPointLookup)
	} else {
		blockOpts := gorocksdb.NewDefaultBlockBasedTableOptions()
		bloomCapacity := cfg.BloomFilterCapacity
		if bloomCapacity < 10 {
			bloomCapacity = 10
		}
		blockOpts.SetFilterPolicy(gorocksdb.NewBloomFilter(bloomCapacity))
		if cfg.BlockCacheSize != 0 {
			blockOpts.SetBlockCache(gorocksdb.NewLRUCache(cfg.BlockCacheSize))
		}
		opts.SetBlockBasedTableFactory(blockOpts)
	}
	if cfg.WriteBufferSize != 0 {
		opts.SetWriteBufferSize(cfg.WriteBufferSize)
	}
	if cfg.MaxOpenFiles != 0 {
		opts.SetMaxOpenFiles(cfg.MaxOpenFiles)
	}
	if cfg.Parallelism != 0 {
		opts.IncreaseParallelism(cfg.Parallelism)
	}
	opts.SetErrorIfExists(cfg.ErrorIfExists)
	opts.SetCreateIfMissing(!cfg.DontCreateIfMissing)

	ret := new(Database)
	ret.writeOpts = gorocksdb.NewDefaultWriteOptions()
	ret.readOpts = gorocksdb.NewDefaultReadOptions()
	var err error
	if cfg.ReadOnly {
		ret.db, err = gorocksdb.OpenDbForReadOnly(opts, cfg.File, cfg.ErrorIfExists)
	} else {
		ret.db, err = gorocksdb.OpenDb(opts, cfg.File)
	}
	if err != nil {
		return nil, err
	}
	// Pinned value handles are destroyed off the read path.
	tasks := make(chan func(), 2048)
	go func() {
		for t := range tasks {
			t()
		}
	}()
	ret.tasks = tasks
	return ret, nil
}

func (self *Database) Put(key []byte, value []byte) error {
	return self.db.Put(self.writeOpts, key, value)
}

func (self *Database) Get(key []byte) ([]byte, error) {
	val_handle, err := self.db.GetPinned(self.readOpts, key)
	if err != nil {
		return nil, err
	}
	ret := common.CopyBytes(val_handle.Data())
	self.tasks <- val_handle.Destroy
	return ret, nil
}

func (self *Database) Has(key []byte) (bool, error) {
	ret, err := self.Get(key)
	return ret != nil, err
}

func (self *Database) Delete(key []byte) error {
	return self.db.Delete(self.writeOpts, key)
}

func (self *Database) Close() {
	self.tasks <- func() {
		self.readOpts.Destroy()
		self.writeOpts.Destroy()
		self.db.Close()
	}
	close(self.tasks)
}

func (self *Database) NewBatch() ethdb.Batch {
	return &batch{
		db:    self,
		batch: gorocksdb.NewWriteBatch(),
	}
}
