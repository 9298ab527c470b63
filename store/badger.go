package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/arduwire/arduwire/hardware"
	badger "github.com/dgraph-io/badger/v2"
)

type Badger struct {
	db *badger.DB
}

const (
	badgerBoardKey     = "board"
	badgerLayoutPrefix = "layouts/"
)

// OpenBadger opens a badger DB with the given options as a store. Use
// badger.DefaultOptions("").WithInMemory(true) for a store that is never
// written to disk.
func OpenBadger(options badger.Options) (Store, error) {
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger db: %w", err)
	}

	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func getGob(key string, v interface{}, tx *badger.Txn) error {
	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("couldn't get raw value: %w", err)
	}

	err = item.Value(func(val []byte) error {
		if err := gob.NewDecoder(bytes.NewReader(val)).Decode(v); err != nil {
			return fmt.Errorf("couldn't decode value with gob: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("couldn't get value: %w", err)
	}

	return nil
}

func (b *Badger) setGob(key string, v interface{}) error {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return fmt.Errorf("couldn't encode value to buffer with gob: %w", err)
	}

	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), buf.Bytes())
	})
}

func (b *Badger) BoardConfig() (hardware.Config, error) {
	var c hardware.Config

	err := b.db.View(func(tx *badger.Txn) error {
		return getGob(badgerBoardKey, &c, tx)
	})
	if err != nil {
		return c, fmt.Errorf("couldn't get board config: %w", err)
	}

	return c, nil
}

func (b *Badger) PutBoardConfig(c hardware.Config) error {
	if err := b.setGob(badgerBoardKey, c); err != nil {
		return fmt.Errorf("couldn't put board config: %w", err)
	}

	return nil
}

func (b *Badger) Layout(name string) (Layout, error) {
	var l Layout

	err := b.db.View(func(tx *badger.Txn) error {
		return getGob(badgerLayoutPrefix+name, &l, tx)
	})
	if err != nil {
		return l, fmt.Errorf("couldn't get layout %q: %w", name, err)
	}

	return l, nil
}

func (b *Badger) ListLayouts() ([]string, error) {
	names := make([]string, 0)

	err := b.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(badgerLayoutPrefix)); it.ValidForPrefix([]byte(badgerLayoutPrefix)); it.Next() {
			key := it.Item().Key()

			names = append(names, string(key[len(badgerLayoutPrefix):]))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't walk layouts: %w", err)
	}

	return names, nil
}

func (b *Badger) PutLayout(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	if err := b.setGob(badgerLayoutPrefix+l.Name, l); err != nil {
		return fmt.Errorf("couldn't put layout %q: %w", l.Name, err)
	}

	return nil
}
