package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// BundleStore loads and saves named bundles.
type BundleStore interface {
	// Load returns the named bundle, or an error wrapping ErrNotFound.
	Load(ctx context.Context, name string) (*Bundle, error)

	// Save stores the bundle under name, replacing any previous one.
	Save(ctx context.Context, name string, b *Bundle) error

	// Close releases any resources held by the store.
	Close() error
}

// BundleExt is the file extension FileBundles appends to bundle names.
const BundleExt = ".bundle"

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

// FileBundles stores each bundle as a msgpack file "<name>.bundle" in a
// FileStore.
type FileBundles struct {
	files FileStore
}

// NewFileBundles creates a BundleStore over files.
func NewFileBundles(files FileStore) *FileBundles {
	return &FileBundles{files: files}
}

func (f *FileBundles) Load(ctx context.Context, name string) (*Bundle, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	r, err := f.files.Read(ctx, name+BundleExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: read bundle %s: %w", name, err)
	}
	return DecodeBundle(data)
}

func (f *FileBundles) Save(ctx context.Context, name string, b *Bundle) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := b.Encode()
	if err != nil {
		return err
	}
	w, err := f.files.Write(ctx, name+BundleExt)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("storage: write bundle %s: %w", name, err)
	}
	return w.Close()
}

func (f *FileBundles) Close() error { return nil }

// BadgerBundles stores bundles in BadgerDB under the key "bundle:<name>".
type BadgerBundles struct {
	db *badger.DB
}

// BadgerOptions configures the badger bundle store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
}

// NewBadgerBundles opens a BadgerDB-backed BundleStore.
func NewBadgerBundles(opts BadgerOptions) (*BadgerBundles, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("storage: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}
	return &BadgerBundles{db: db}, nil
}

func bundleKey(name string) []byte {
	return []byte("bundle:" + name)
}

func (b *BadgerBundles) Load(_ context.Context, name string) (*Bundle, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bundleKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return DecodeBundle(data)
}

func (b *BadgerBundles) Save(_ context.Context, name string, bundle *Bundle) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := bundle.Encode()
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bundleKey(name), data)
	})
}

// Names lists the stored bundle names in key order.
func (b *BadgerBundles) Names(_ context.Context) ([]string, error) {
	prefix := bundleKey("")
	var names []string
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	return names, err
}

func (b *BadgerBundles) Close() error {
	return b.db.Close()
}
