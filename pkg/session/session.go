// Package session holds the single source of truth for "who is logged in".
// Screens receive a *Store explicitly instead of reading ambient state, and
// subscribe to it for cross-view updates.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Session struct {
	Token  string
	UserID string
	Name   string
	Role   string
	Email  string
}

// Present reports whether a session exists. The token is the sole signal.
func (s Session) Present() bool {
	return s.Token != ""
}

// Store guards the current session. Set and Clear replace every field in one
// step, so no reader ever observes a partially written session.
type Store struct {
	mu   sync.Mutex
	cur  Session
	path string // empty disables persistence
	subs []chan Session
}

func NewStore() *Store {
	return &Store{}
}

// NewFileStore persists the session to path and restores whatever a previous
// run left there.
func NewFileStore(path string) (*Store, error) {
	st := &Store{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, err
	}
	var kv map[string]string
	if err := json.Unmarshal(b, &kv); err != nil {
		return nil, err
	}
	st.cur = Session{
		Token:  kv["auth_token"],
		UserID: kv["user_id"],
		Name:   kv["user_name"],
		Role:   kv["user_role"],
		Email:  kv["user_email"],
	}
	return st, nil
}

func (st *Store) Set(s Session) error {
	st.mu.Lock()
	st.cur = s
	err := st.persistLocked()
	st.notifyLocked()
	st.mu.Unlock()
	return err
}

func (st *Store) Get() (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cur, st.cur.Present()
}

// Clear removes every field together.
func (st *Store) Clear() error {
	return st.Set(Session{})
}

// Guard is the auth check every protected screen runs before rendering.
func (st *Store) Guard() error {
	if _, ok := st.Get(); !ok {
		return ErrNotAuthenticated
	}
	return nil
}

// Subscribe returns a channel that receives a snapshot after every change.
// Slow subscribers miss intermediate snapshots rather than block writers.
func (st *Store) Subscribe() <-chan Session {
	ch := make(chan Session, 1)
	st.mu.Lock()
	st.subs = append(st.subs, ch)
	st.mu.Unlock()
	return ch
}

func (st *Store) notifyLocked() {
	for _, ch := range st.subs {
		select {
		case ch <- st.cur:
		default:
			// drop the stale snapshot so the fresh one fits
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st.cur:
			default:
			}
		}
	}
}

// persistLocked writes all keys in one rename, or removes the file on a
// cleared session.
func (st *Store) persistLocked() error {
	if st.path == "" {
		return nil
	}
	if !st.cur.Present() {
		err := os.Remove(st.path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	kv := map[string]string{
		"auth_token": st.cur.Token,
		"user_id":    st.cur.UserID,
		"user_name":  st.cur.Name,
		"user_role":  st.cur.Role,
		"user_email": st.cur.Email,
	}
	b, err := json.Marshal(kv)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(st.path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), st.path)
}
