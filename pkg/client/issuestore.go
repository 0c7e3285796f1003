package client

import "sync"

// IssueStore holds the last-fetched issue collections in memory and
// keeps them consistent across mutations without a re-fetch. Entries are
// kept for the lifetime of the session; there is deliberately no TTL or
// eviction, matching how the listing screens consume it.
type IssueStore struct {
	mu      sync.RWMutex
	all     []Issue
	mine    []Issue
	hasAll  bool
	hasMine bool
}

// NewIssueStore returns an empty store.
func NewIssueStore() *IssueStore {
	return &IssueStore{}
}

// SetAll replaces the full listing collection.
func (s *IssueStore) SetAll(issues []Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append([]Issue(nil), issues...)
	s.hasAll = true
}

// SetMine replaces the caller's own collection.
func (s *IssueStore) SetMine(issues []Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mine = append([]Issue(nil), issues...)
	s.hasMine = true
}

// All returns a copy of the full collection.
func (s *IssueStore) All() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Issue(nil), s.all...)
}

// Mine returns a copy of the caller's own collection.
func (s *IssueStore) Mine() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Issue(nil), s.mine...)
}

// Prepend inserts a newly created issue at the head of any collection
// that has been fetched.
func (s *IssueStore) Prepend(issue Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasAll {
		s.all = append([]Issue{issue}, s.all...)
	}
	if s.hasMine {
		s.mine = append([]Issue{issue}, s.mine...)
	}
}

// Replace swaps the matching record in place in both collections,
// preserving order.
func (s *IssueStore) Replace(issue Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaceIn(s.all, issue)
	replaceIn(s.mine, issue)
}

// Remove drops the issue with the given id from both collections. Either
// identifier field matches.
func (s *IssueStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = removeFrom(s.all, id)
	s.mine = removeFrom(s.mine, id)
}

// GetByID looks the issue up in memory only. Callers fall back to a
// network fetch on a miss.
func (s *IssueStore) GetByID(id string) (*Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.mine {
		if s.mine[i].Key() == id {
			issue := s.mine[i]
			return &issue, true
		}
	}
	for i := range s.all {
		if s.all[i].Key() == id {
			issue := s.all[i]
			return &issue, true
		}
	}
	return nil, false
}

// Clear empties both collections, for logout.
func (s *IssueStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = nil
	s.mine = nil
	s.hasAll = false
	s.hasMine = false
}

func replaceIn(issues []Issue, issue Issue) {
	key := issue.Key()
	for i := range issues {
		if issues[i].Key() == key {
			issues[i] = issue
			return
		}
	}
}

func removeFrom(issues []Issue, id string) []Issue {
	for i := range issues {
		if issues[i].Key() == id {
			return append(issues[:i], issues[i+1:]...)
		}
	}
	return issues
}
