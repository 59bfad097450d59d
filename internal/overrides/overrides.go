// Package overrides persists locally edited photo fields.
//
// All records live under a single KV key as one JSON object keyed by the
// stringified photo id. Writes are read-modify-write of that whole object, so
// they go through one owner goroutine; two edits for different photos can no
// longer drop each other. Reads go straight to the KV.
package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mmynk/portfolio/internal/models"
	"github.com/mmynk/portfolio/internal/storage"
)

// Namespace is the KV key holding every override record.
const Namespace = "updatedPhotos"

var ErrClosed = errors.New("override store closed")

// Snapshot is every override record at one point in time, keyed by photo id.
type Snapshot map[int]models.Override

// Apply overlays the record for p.ID, if any.
func (s Snapshot) Apply(p models.Photo) models.Photo {
	if o, ok := s[p.ID]; ok {
		return o.Apply(p)
	}
	return p
}

type request struct {
	fn    func() error
	reply chan error
}

type Store struct {
	kv     storage.KV
	logger *slog.Logger

	requests  chan request
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts the owner goroutine. Call Close to stop it.
func New(kv storage.KV, logger *slog.Logger) *Store {
	s := &Store{
		kv:       kv,
		logger:   logger,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Store) run() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.requests:
			req.reply <- req.fn()
		case <-s.done:
			return
		}
	}
}

// Close stops the owner goroutine. Pending writes finish first.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Store) submit(ctx context.Context, fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.requests <- req:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// once accepted the request runs to completion, so its result is the answer
	return <-req.reply
}

// Get returns the record for photoID.
func (s *Store) Get(ctx context.Context, photoID int) (models.Override, bool, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	o, ok := all[strconv.Itoa(photoID)]
	return o, ok, nil
}

// All returns every record in one read.
func (s *Store) All(ctx context.Context) (Snapshot, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(all))
	for key, o := range all {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		snap[id] = o
	}
	return snap, nil
}

// Put merges fields into the record for photoID, creating it if needed, and
// writes the whole namespace back. It returns the merged record.
func (s *Store) Put(ctx context.Context, photoID int, fields models.Override) (models.Override, error) {
	var merged models.Override
	err := s.submit(ctx, func() error {
		ctx := context.WithoutCancel(ctx)
		all, err := s.load(ctx)
		if err != nil {
			return err
		}
		key := strconv.Itoa(photoID)
		merged = all[key].Merge(fields)
		all[key] = merged

		data, err := json.Marshal(all)
		if err != nil {
			return fmt.Errorf("encode overrides: %w", err)
		}
		if err := s.kv.Put(ctx, Namespace, data); err != nil {
			return fmt.Errorf("write overrides: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// load reads the namespace. A missing or unparseable value is an empty map.
func (s *Store) load(ctx context.Context) (map[string]models.Override, error) {
	data, err := s.kv.Get(ctx, Namespace)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]models.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}

	all := map[string]models.Override{}
	if err := json.Unmarshal(data, &all); err != nil || all == nil {
		s.logger.Warn("Override namespace unreadable, treating as empty",
			"namespace", Namespace,
			"error", err,
		)
		return map[string]models.Override{}, nil
	}
	return all, nil
}
