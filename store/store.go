// Package store persists training run records in a bolt database.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var trainingsBucket = []byte("trainings")

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("training not found")

// Status is the state of a training run.
type Status string

const (
	Running   Status = "running"
	Done      Status = "done"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

// Training is the persisted record of one training run.
type Training struct {
	UUID       string                 `json:"uuid"`
	Status     Status                 `json:"status"`
	Date       time.Time              `json:"date"`
	Finished   *time.Time             `json:"finished,omitempty"`
	Args       map[string]interface{} `json:"args"`
	History    []float64              `json:"history"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Checkpoint string                 `json:"checkpoint,omitempty"`
}

// Store wraps the bolt database.
type Store struct {
	db *bolt.DB
}

// Open opens, creating it when needed, the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(trainingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create trainings bucket")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a record.
func (s *Store) Put(t *Training) error {
	if t.UUID == "" {
		return errors.New("training has no uuid")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrapf(err, "encode training %s", t.UUID)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(trainingsBucket).Put([]byte(t.UUID), data)
	})
}

// Get returns the record of id.
func (s *Store) Get(id string) (*Training, error) {
	var t *Training
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(trainingsBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		t = new(Training)
		return json.Unmarshal(data, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns every record, oldest first.
func (s *Store) List() ([]*Training, error) {
	var out []*Training
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(trainingsBucket).ForEach(func(k, v []byte) error {
			t := new(Training)
			if err := json.Unmarshal(v, t); err != nil {
				return errors.Wrapf(err, "decode training %s", k)
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
