// Package boltstore is the embedded BoltDB backend for the repository
// interfaces. Records are stored as JSON values keyed by id, one bucket per
// record kind.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
)

var (
	bucketContracts      = []byte("contracts")
	bucketInvoices       = []byte("invoices")
	bucketInvoiceKeys    = []byte("invoice_keys")
	bucketSequences      = []byte("sequences")
	bucketSequenceResets = []byte("sequence_resets")
	bucketTemplates      = []byte("templates")
	bucketAssignments    = []byte("assignments")
	bucketProperties     = []byte("properties")
	bucketUnits          = []byte("units")
	bucketReservations   = []byte("reservations")
	bucketCoupons        = []byte("coupons")
	bucketOutbox         = []byte("outbox")
	bucketSettings       = []byte("settings")
)

var allBuckets = [][]byte{
	bucketContracts, bucketInvoices, bucketInvoiceKeys, bucketSequences, bucketSequenceResets,
	bucketTemplates, bucketAssignments, bucketProperties, bucketUnits, bucketReservations,
	bucketCoupons, bucketOutbox, bucketSettings,
}

var errReadOnlyTx = errors.New("write attempted inside a read-only transaction")

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and ensures every bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

type txKey struct{}

func txFrom(ctx context.Context) *bolt.Tx {
	tx, _ := ctx.Value(txKey{}).(*bolt.Tx)
	return tx
}

// WithinTx runs fn inside one writable bolt transaction. Bolt admits a single
// writer at a time, so everything fn does through the context is serialized
// against other writers.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(repository.MarkTx(context.WithValue(ctx, txKey{}, tx)))
	})
}

func (s *Store) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx := txFrom(ctx); tx != nil {
		if !tx.Writable() {
			return errReadOnlyTx
		}
		return fn(tx)
	}
	return s.db.Update(fn)
}

func (s *Store) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if tx := txFrom(ctx); tx != nil {
		return fn(tx)
	}
	return s.db.View(fn)
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:           s,
		Contracts:    &contractRepository{s: s},
		Invoices:     &invoiceRepository{s: s},
		Sequences:    &sequenceRepository{s: s},
		Templates:    &templateRepository{s: s},
		Properties:   &propertyRepository{s: s},
		Reservations: &reservationRepository{s: s},
		Coupons:      &couponRepository{s: s},
		Outbox:       &outboxRepository{s: s},
		FeeSettings:  &feeSettingRepository{s: s},
	}
}

func get(tx *bolt.Tx, bucket []byte, key string, v any) error {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return domain.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func put(tx *bolt.Tx, bucket []byte, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func exists(tx *bolt.Tx, bucket []byte, key string) bool {
	return tx.Bucket(bucket).Get([]byte(key)) != nil
}
