package client

import (
	"path/filepath"
	"testing"
)

func watchedIssue(id, status string) Issue {
	return Issue{ID: id, Title: "Issue " + id, Status: status}
}

func TestFirstSightingNeverNotifies(t *testing.T) {
	var changes []StatusChange
	watcher := NewStatusWatcher(NewMemoryStatusStore(), func(c StatusChange) {
		changes = append(changes, c)
	})

	if err := watcher.CheckAndNotify([]Issue{watchedIssue("1", "open"), watchedIssue("2", "in_progress")}); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Errorf("first fetch notified: %+v", changes)
	}
}

func TestNotifiesOnTransition(t *testing.T) {
	var changes []StatusChange
	watcher := NewStatusWatcher(NewMemoryStatusStore(), func(c StatusChange) {
		changes = append(changes, c)
	})

	fetches := [][]Issue{
		{watchedIssue("1", "open")},
		{watchedIssue("1", "in_progress")},
		{watchedIssue("1", "resolved")},
	}
	for _, fetch := range fetches {
		if err := watcher.CheckAndNotify(fetch); err != nil {
			t.Fatal(err)
		}
	}

	if len(changes) != 2 {
		t.Fatalf("expected one notification per observed transition, got %d", len(changes))
	}
	if changes[0].OldStatus != "open" || changes[0].NewStatus != "in_progress" {
		t.Errorf("first transition: %+v", changes[0])
	}
	if changes[1].OldStatus != "in_progress" || changes[1].NewStatus != "resolved" {
		t.Errorf("second transition: %+v", changes[1])
	}
}

func TestUnchangedStatusStaysQuiet(t *testing.T) {
	var changes []StatusChange
	watcher := NewStatusWatcher(NewMemoryStatusStore(), func(c StatusChange) {
		changes = append(changes, c)
	})

	for i := 0; i < 3; i++ {
		if err := watcher.CheckAndNotify([]Issue{watchedIssue("1", "open")}); err != nil {
			t.Fatal(err)
		}
	}
	if len(changes) != 0 {
		t.Errorf("unchanged status notified: %+v", changes)
	}
}

func TestClearResetsKnownStatuses(t *testing.T) {
	var changes []StatusChange
	watcher := NewStatusWatcher(NewMemoryStatusStore(), func(c StatusChange) {
		changes = append(changes, c)
	})

	if err := watcher.CheckAndNotify([]Issue{watchedIssue("1", "open")}); err != nil {
		t.Fatal(err)
	}
	if err := watcher.Clear(); err != nil {
		t.Fatal(err)
	}

	// Post-logout the next fetch is a first sighting again.
	if err := watcher.CheckAndNotify([]Issue{watchedIssue("1", "resolved")}); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Errorf("cleared watcher replayed history: %+v", changes)
	}
}

func TestFileStatusStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuses.json")

	var changes []StatusChange
	watcher := NewStatusWatcher(NewFileStatusStore(path), func(c StatusChange) {
		changes = append(changes, c)
	})
	if err := watcher.CheckAndNotify([]Issue{watchedIssue("1", "open")}); err != nil {
		t.Fatal(err)
	}

	// A fresh watcher over the same file remembers prior statuses.
	reopened := NewStatusWatcher(NewFileStatusStore(path), func(c StatusChange) {
		changes = append(changes, c)
	})
	if err := reopened.CheckAndNotify([]Issue{watchedIssue("1", "resolved")}); err != nil {
		t.Fatal(err)
	}

	if len(changes) != 1 || changes[0].NewStatus != "resolved" {
		t.Errorf("persisted statuses not honored: %+v", changes)
	}
}

func TestStatusChangeMessage(t *testing.T) {
	change := StatusChange{Title: "Broken light", NewStatus: "resolved"}
	if got := change.Message(); got != `"Broken light" has been resolved` {
		t.Errorf("got %q", got)
	}
}
