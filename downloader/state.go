package downloader

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	reposBucket  = "repos"
	issuesBucket = "issues"
)

// State remembers which repositories were checked and which items were
// already written, so an interrupted collection can be resumed.
type State struct {
	db *bolt.DB
}

type repoEntry struct {
	CheckedAt time.Time `json:"checked_at"`
	Items     int       `json:"items"`
}

func OpenState(path string) (*State, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{reposBucket, issuesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init state db: %w", err)
	}

	return &State{db: db}, nil
}

func (s *State) Close() error {
	return s.db.Close()
}

// RepoChecked reports whether fullName was fully collected before.
func (s *State) RepoChecked(fullName string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(reposBucket)).Get([]byte(fullName)) != nil
		return nil
	})
	return found, err
}

func (s *State) MarkRepo(fullName string, items int) error {
	data, err := json.Marshal(repoEntry{CheckedAt: time.Now().UTC(), Items: items})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(reposBucket)).Put([]byte(fullName), data)
	})
}

func (s *State) ItemCollected(fullName string, number int) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(issuesBucket)).Get(itemKey(fullName, number)) != nil
		return nil
	})
	return found, err
}

func (s *State) MarkItem(fullName string, number int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(issuesBucket)).Put(itemKey(fullName, number), []byte{1})
	})
}

func itemKey(fullName string, number int) []byte {
	return []byte(fmt.Sprintf("%s#%d", fullName, number))
}
