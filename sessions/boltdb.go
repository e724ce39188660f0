package sessions

import (
	"encoding/json"

	"geoconsole/config"
	"geoconsole/models"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

const boltDBBucket = "sessions"

// BoltDBStorage keeps sessions in a local bolt file. Expiration is
// enforced by the Manager on read since bolt has no TTL.
type BoltDBStorage struct {
	cfg  config.BoltDBConfig
	conn *bolt.DB
}

func NewBoltDBStorage(cfg config.BoltDBConfig) (*BoltDBStorage, error) {
	options := &bolt.Options{
		Timeout:  cfg.LockTimeout(),
		ReadOnly: cfg.ReadOnly,
	}
	conn, err := bolt.Open(cfg.FilePath, 0600, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize the bolt store")
	}

	if !cfg.ReadOnly {
		err = conn.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(boltDBBucket))
			return err
		})
		if err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "failed to create sessions bucket")
		}
	}

	return &BoltDBStorage{
		conn: conn,
		cfg:  cfg,
	}, nil
}

func (b *BoltDBStorage) CheckConn() error {
	return b.conn.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(boltDBBucket)) == nil {
			return errors.New("sessions bucket is missing")
		}
		return nil
	})
}

func (b *BoltDBStorage) CloseConnection() error {
	return b.conn.Close()
}

func (b *BoltDBStorage) GetSession(key string) (*models.Session, error) {
	session := new(models.Session)

	err := b.conn.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltDBBucket))
		if bucket == nil {
			return ErrNotFound
		}

		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(v, session); err != nil {
			return errors.Wrap(err, "failed to unmarshal session from boltdb")
		}
		return nil
	})
	if err == ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to view the data by key")
	}
	return session, nil
}

func (b *BoltDBStorage) SaveAsJSON(key string, value interface{}, _ int64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal data")
	}

	return b.conn.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(boltDBBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), raw)
	})
}

func (b *BoltDBStorage) Delete(key string) error {
	return b.conn.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(boltDBBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}
