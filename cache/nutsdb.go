package cache

import (
	"geoconsole/config"

	"github.com/pkg/errors"
	"github.com/xujiajun/nutsdb"
)

type NutsDBStorage struct {
	cfg  config.NutsDBCfg
	conn *nutsdb.DB
}

func NewNutsDBStorage(cfg config.NutsDBCfg) (*NutsDBStorage, error) {
	options := nutsdb.DefaultOptions
	options.Dir = cfg.Path
	options.SyncEnable = true
	if cfg.SegmentSize > 0 {
		options.SegmentSize = cfg.SegmentSize
	}

	conn, err := nutsdb.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize the nutsdb store")
	}

	return &NutsDBStorage{
		conn: conn,
		cfg:  cfg,
	}, nil
}

func (b *NutsDBStorage) CheckConn() error {
	return b.conn.View(func(tx *nutsdb.Tx) error { return nil })
}

func (b *NutsDBStorage) CloseConnection() error {
	return b.conn.Close()
}

func (b *NutsDBStorage) Get(bucket, key string) ([]byte, error) {
	var value []byte

	err := b.conn.View(func(tx *nutsdb.Tx) error {
		entry, err := tx.Get(bucket, []byte(key))
		if err != nil {
			return err
		}

		value = make([]byte, len(entry.Value))
		copy(value, entry.Value)
		return nil
	})
	if err != nil {
		// nutsdb reports misses on unknown buckets and keys, and expired
		// entries, with different errors; all of them are misses here.
		return nil, ErrNotFound
	}

	return value, nil
}

func (b *NutsDBStorage) Save(bucket, key string, value []byte, ttl int64) error {
	if ttl < 0 {
		ttl = 0
	}

	err := b.conn.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(bucket, []byte(key), value, uint32(ttl))
	})
	if err != nil {
		return errors.Wrap(err, "failed to save the data by key")
	}
	return nil
}

func (b *NutsDBStorage) Delete(bucket, key string) error {
	err := b.conn.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(bucket, []byte(key))
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete the data by key")
	}
	return nil
}
