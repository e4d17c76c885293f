package tune

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/askiada/go-postprocess/pkg/postprocess"
)

const valuesBucket = "values"

var ErrNoValues = errors.New("no stored values")

// BoltStore persists tuned values per pipeline name in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens, or creates, the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(valuesBucket))
		if err != nil {
			return errors.Wrap(err, "create values bucket")
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}

	return errors.Wrap(s.db.Close(), "unable to close store")
}

// Save replaces the values stored for pipeline.
func (s *BoltStore) Save(pipeline string, values postprocess.Values) error {
	if pipeline == "" {
		return errors.Wrap(postprocess.ErrPipelineMustBeSet, "name must be set")
	}

	data, err := json.Marshal(Flatten(values))
	if err != nil {
		return errors.Wrap(err, "marshal values")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(valuesBucket)).Put([]byte(pipeline), data)
	})
}

// Load returns the values stored for pipeline, or ErrNoValues.
func (s *BoltStore) Load(pipeline string) (postprocess.Values, error) {
	var data []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(valuesBucket)).Get([]byte(pipeline))
		if v == nil {
			return errors.Wrapf(ErrNoValues, "%q", pipeline)
		}

		data = bytes.Clone(v)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return DecodeValues(bytes.NewReader(data))
}

// Delete drops the values stored for pipeline.
func (s *BoltStore) Delete(pipeline string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(valuesBucket)).Delete([]byte(pipeline))
	})
}

// Pipelines lists the pipeline names with stored values, in key order.
func (s *BoltStore) Pipelines() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(valuesBucket)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))

			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to list pipelines")
	}

	return names, nil
}
