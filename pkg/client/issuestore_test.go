package client

import "testing"

func testIssue(id, title string) Issue {
	return Issue{ID: id, Title: title, Status: "open"}
}

func TestPrependTouchesFetchedCollections(t *testing.T) {
	store := NewIssueStore()
	store.SetMine([]Issue{testIssue("1", "old")})

	store.Prepend(testIssue("2", "new"))

	mine := store.Mine()
	if len(mine) != 2 || mine[0].ID != "2" {
		t.Errorf("new issue not prepended to mine: %+v", mine)
	}
	// The admin listing was never fetched; nothing to prepend to.
	if all := store.All(); len(all) != 0 {
		t.Errorf("unfetched collection populated: %+v", all)
	}
}

func TestReplacePreservesOrder(t *testing.T) {
	store := NewIssueStore()
	store.SetAll([]Issue{testIssue("1", "a"), testIssue("2", "b"), testIssue("3", "c")})

	updated := testIssue("2", "b updated")
	updated.Status = "resolved"
	store.Replace(updated)

	all := store.All()
	if all[1].ID != "2" || all[1].Title != "b updated" || all[1].Status != "resolved" {
		t.Errorf("record not replaced in place: %+v", all[1])
	}
	if all[0].ID != "1" || all[2].ID != "3" {
		t.Error("replace reordered the collection")
	}
}

func TestRemoveToleratesLegacyID(t *testing.T) {
	store := NewIssueStore()
	legacy := Issue{LegacyID: "legacy-1", Title: "old backend"}
	store.SetMine([]Issue{legacy, testIssue("2", "b")})

	store.Remove("legacy-1")

	mine := store.Mine()
	if len(mine) != 1 || mine[0].ID != "2" {
		t.Errorf("legacy-keyed record not removed: %+v", mine)
	}
}

func TestGetByID(t *testing.T) {
	store := NewIssueStore()
	store.SetAll([]Issue{testIssue("1", "a")})

	issue, ok := store.GetByID("1")
	if !ok || issue.Title != "a" {
		t.Errorf("lookup failed: %+v ok=%v", issue, ok)
	}
	if _, ok := store.GetByID("missing"); ok {
		t.Error("miss must report not found so callers fall back to the network")
	}
}

func TestClear(t *testing.T) {
	store := NewIssueStore()
	store.SetAll([]Issue{testIssue("1", "a")})
	store.SetMine([]Issue{testIssue("1", "a")})

	store.Clear()

	if len(store.All()) != 0 || len(store.Mine()) != 0 {
		t.Error("collections survive clear")
	}
	// After clear nothing has been fetched, so mutations are no-ops.
	store.Prepend(testIssue("2", "b"))
	if len(store.Mine()) != 0 {
		t.Error("prepend touched a cleared, unfetched collection")
	}
}
