// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package storage persists party, profile, and report records in
// BadgerDB as opaque JSON blobs. Records are keyed by opaque string ids
// under per-type prefixes; serialization happens only at this boundary.
package storage

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/metrics"
	"github.com/tomtom215/tablemix/internal/models"
)

// ErrNotFound indicates a record that does not exist. Callers match it
// with errors.Is.
var ErrNotFound = errors.New("record not found")

// Key prefixes partition the keyspace by record type.
const (
	partyPrefix   = "party:"
	profilePrefix = "profile:"
	reportPrefix  = "report:"
)

// Config holds storage configuration.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory runs the store without disk persistence. Used in tests and
	// ephemeral deployments.
	InMemory bool `koanf:"in_memory"`
}

// Store is a BadgerDB-backed record store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store at the configured path.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}

	return &Store{
		db:     db,
		logger: logging.Component("storage"),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetParty loads one party record.
func (s *Store) GetParty(ctx context.Context, id string) (*models.Party, error) {
	var p models.Party
	if err := s.get(ctx, partyPrefix+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutParty stores one party record, replacing any previous version.
func (s *Store) PutParty(ctx context.Context, p *models.Party) error {
	return s.put(ctx, partyPrefix+p.ID, "party", p)
}

// ListParties returns every stored party.
func (s *Store) ListParties(ctx context.Context) ([]*models.Party, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var parties []*models.Party
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(partyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p models.Party
				if err := json.Unmarshal(val, &p); err != nil {
					return fmt.Errorf("decoding party record: %w", err)
				}
				parties = append(parties, &p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parties, nil
}

// GetProfile loads one participant profile.
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Participant, error) {
	var p models.Participant
	if err := s.get(ctx, profilePrefix+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutProfile stores one participant profile.
func (s *Store) PutProfile(ctx context.Context, p *models.Participant) error {
	return s.put(ctx, profilePrefix+p.ProfileID, "profile", p)
}

// GetReport loads one report.
func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	if err := s.get(ctx, reportPrefix+id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// PutReport stores one report. Reports are never replaced; each
// generation carries a fresh id.
func (s *Store) PutReport(ctx context.Context, r *models.Report) error {
	return s.put(ctx, reportPrefix+r.ID, "report", r)
}

func (s *Store) get(ctx context.Context, key string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, key)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err != nil {
		return err
	}
	return nil
}

func (s *Store) put(ctx context.Context, key, recordType string, record interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := json.Marshal(record)
	if err != nil {
		metrics.StorageWriteErrors.WithLabelValues(recordType).Inc()
		return fmt.Errorf("encoding record %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
	if err != nil {
		metrics.StorageWriteErrors.WithLabelValues(recordType).Inc()
		return fmt.Errorf("writing record %s: %w", key, err)
	}

	s.logger.Trace().Str("key", key).Int("bytes", len(blob)).Msg("Record written")
	return nil
}
