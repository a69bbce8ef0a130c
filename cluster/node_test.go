package cluster

import "testing"

func TestNodeID_ParseRoundTrip(t *testing.T) {
	id := NewNodeID()
	parsed, err := ParseNodeID(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("parsed id %v != original %v", parsed, id)
	}
}

func TestNodeID_ParseRejectsGarbage(t *testing.T) {
	if _, err := ParseNodeID("not-a-uuid"); err == nil {
		t.Fatal("expected error parsing an invalid node id")
	}
}

func TestNodeID_Uint64Deterministic(t *testing.T) {
	id := NewNodeID()
	if id.Uint64() != id.Uint64() {
		t.Fatal("expected Uint64 to be deterministic for the same id")
	}
}

func TestServerList_PreservesOrder(t *testing.T) {
	list := ServerList{
		{ID: 1, Address: "a"},
		{ID: 2, Address: "b"},
	}
	if list[0].ID != 1 || list[1].ID != 2 {
		t.Fatal("expected ServerList to preserve insertion order")
	}
}
