package fakestore

import (
	"context"
	"sync"

	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/internal/errors"
)

var (
	_ credentials.Store     = (*FakeStore)(nil)
	_ credentials.SignOuter = (*FakeStore)(nil)
)

// FakeStore is an in-memory credentials.Store. Refresh results are queued
// with QueueRefresh; an empty queue makes RefreshSession fail.
type FakeStore struct {
	lock         sync.Mutex
	session      *credentials.Session
	refreshQueue []*credentials.Session
	refreshErr   error
	refreshCalls int
	signOuts     int
}

func NewFakeStore(session *credentials.Session) *FakeStore {
	return &FakeStore{session: session.Clone()}
}

func (f *FakeStore) CurrentSession(_ context.Context) (*credentials.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.session.Clone(), nil
}

func (f *FakeStore) RefreshSession(_ context.Context) (*credentials.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshCalls++

	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if len(f.refreshQueue) == 0 {
		return nil, errors.ErrRefreshFailed
	}
	next := f.refreshQueue[0]
	f.refreshQueue = f.refreshQueue[1:]
	f.session = next.Clone()
	return next.Clone(), nil
}

func (f *FakeStore) SignOut(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.session = nil
	f.signOuts++
	return nil
}

// QueueRefresh makes the next RefreshSession return session.
func (f *FakeStore) QueueRefresh(session *credentials.Session) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshQueue = append(f.refreshQueue, session.Clone())
}

// FailRefresh makes every RefreshSession return err.
func (f *FakeStore) FailRefresh(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshErr = err
}

func (f *FakeStore) SetSession(session *credentials.Session) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.session = session.Clone()
}

func (f *FakeStore) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}

func (f *FakeStore) SignOuts() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signOuts
}
