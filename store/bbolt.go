package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arduwire/arduwire/hardware"
	"go.etcd.io/bbolt"
)

type BBolt struct {
	db *bbolt.DB
}

const (
	bboltArduwireBucket = "arduwire"
	bboltLayoutBucket   = "layouts" // child of arduwire

	// arduwire keys
	bboltBoardKey = "board"
)

// OpenBBolt opens a BBoltDB database at the given path and creates the needed buckets
// if they don't exist.
func OpenBBolt(path string, mode os.FileMode, options *bbolt.Options) (Store, error) {
	db, err := bbolt.Open(path, mode, options)
	if err != nil {
		return nil, fmt.Errorf("unable to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		arduwireBucket, err := tx.CreateBucketIfNotExists([]byte(bboltArduwireBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltArduwireBucket, err)
		}

		_, err = arduwireBucket.CreateBucketIfNotExists([]byte(bboltLayoutBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltLayoutBucket, err)
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create bbolt buckets: %w", err)
	}

	return &BBolt{
		db: db,
	}, nil
}

func (b *BBolt) Close() error {
	return b.db.Close()
}

func (b *BBolt) Layout(name string) (Layout, error) {
	var l Layout
	err := b.db.View(func(tx *bbolt.Tx) error {
		arduwireBucket := tx.Bucket([]byte(bboltArduwireBucket))
		layoutBucket := arduwireBucket.Bucket([]byte(bboltLayoutBucket))

		layoutJSON := layoutBucket.Get([]byte(name))
		if layoutJSON == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(layoutJSON, &l); err != nil {
			return fmt.Errorf("unable to unmarshal layout JSON: %w", err)
		}

		return nil
	})
	if err != nil {
		return l, fmt.Errorf("unable to get layout %q: %w", name, err)
	}

	return l, nil
}

func (b *BBolt) ListLayouts() ([]string, error) {
	names := make([]string, 0)

	err := b.db.View(func(tx *bbolt.Tx) error {
		arduwireBucket := tx.Bucket([]byte(bboltArduwireBucket))
		layoutBucket := arduwireBucket.Bucket([]byte(bboltLayoutBucket))

		err := layoutBucket.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
		if err != nil {
			return fmt.Errorf("unable to iterate over layout bucket: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list layouts: %w", err)
	}

	return names, nil
}

func (b *BBolt) PutLayout(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		layoutJSON, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("unable to marshal layout: %w", err)
		}

		arduwireBucket := tx.Bucket([]byte(bboltArduwireBucket))
		layoutBucket := arduwireBucket.Bucket([]byte(bboltLayoutBucket))
		if err := layoutBucket.Put([]byte(l.Name), layoutJSON); err != nil {
			return fmt.Errorf("unable to put layout %q: %w", l.Name, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to update layout: %w", err)
	}

	return nil
}

func (b *BBolt) BoardConfig() (hardware.Config, error) {
	var c hardware.Config
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltArduwireBucket))
		boardJSON := bucket.Get([]byte(bboltBoardKey))
		if boardJSON == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(boardJSON, &c); err != nil {
			return fmt.Errorf("unable to unmarshal board config JSON: %w", err)
		}

		return nil
	})
	if err != nil {
		return c, fmt.Errorf("unable to get board config: %w", err)
	}

	return c, nil
}

func (b *BBolt) PutBoardConfig(c hardware.Config) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		boardJSON, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("unable to marshal board config: %w", err)
		}

		bucket := tx.Bucket([]byte(bboltArduwireBucket))
		if err := bucket.Put([]byte(bboltBoardKey), boardJSON); err != nil {
			return fmt.Errorf("unable to put board config: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to update board config: %w", err)
	}

	return nil
}
