package dto

import (
	"encoding/json"
	"testing"
)

func TestAssignedToAbsent(t *testing.T) {
	var req UpdateIssueRequest
	if err := json.Unmarshal([]byte(`{"title":"x"}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.AssignedTo.Set {
		t.Error("absent field must not read as set")
	}
}

func TestAssignedToNull(t *testing.T) {
	var req UpdateIssueRequest
	if err := json.Unmarshal([]byte(`{"assignedTo":null}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.AssignedTo.Set || req.AssignedTo.Value != nil {
		t.Errorf("explicit null must clear: set=%v value=%v", req.AssignedTo.Set, req.AssignedTo.Value)
	}
}

func TestAssignedToValue(t *testing.T) {
	var req UpdateIssueRequest
	if err := json.Unmarshal([]byte(`{"assignedTo":"user-9"}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.AssignedTo.Set || req.AssignedTo.Value == nil || *req.AssignedTo.Value != "user-9" {
		t.Errorf("got set=%v value=%v", req.AssignedTo.Set, req.AssignedTo.Value)
	}
}

func TestAssignedToEmptyString(t *testing.T) {
	var req UpdateIssueRequest
	if err := json.Unmarshal([]byte(`{"assignedTo":""}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.AssignedTo.Set || req.AssignedTo.Value != nil {
		t.Error("empty string clears the assignee")
	}
}
