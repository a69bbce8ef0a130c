package wire

import (
	"testing"

	"github.com/tinysqlio/memvfs/cluster"
)

func TestServers_PutGetRoundTrip(t *testing.T) {
	want := cluster.ServerList{
		{ID: 1, Address: "10.0.0.1:9000"},
		{ID: 2, Address: "10.0.0.2:9000"},
		{ID: 3, Address: "10.0.0.3:9000"},
	}

	send := NewMessage()
	send.HeaderPut(5, 0)
	if err := send.PutServers(want); err != nil {
		t.Fatalf("put servers: %v", err)
	}
	bufs, err := send.SendStart()
	if err != nil {
		t.Fatalf("send start: %v", err)
	}
	var body []byte
	for _, b := range bufs[1:] {
		body = append(body, b...)
	}

	recv := NewMessage()
	recv.words = uint32(len(body) / WordSize)
	copy(recv.body1[:], body)

	got, gerr := recv.GetServers()
	if gerr != nil {
		t.Fatalf("get servers: %v", gerr)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d servers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("server %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestServers_EmptyListEncodesNothing(t *testing.T) {
	send := NewMessage()
	send.HeaderPut(5, 0)
	if err := send.PutServers(cluster.ServerList{}); err != nil {
		t.Fatalf("put servers: %v", err)
	}
	send.PutUint64(0) // pad so SendStart has something word-aligned to work with
	bufs, err := send.SendStart()
	if err != nil {
		t.Fatalf("send start: %v", err)
	}
	var body []byte
	for _, b := range bufs[1:] {
		body = append(body, b...)
	}
	if len(body) != WordSize {
		t.Fatalf("body = %d bytes, want %d (the padding word only)", len(body), WordSize)
	}

	recv := NewMessage()
	recv.words = uint32(len(body) / WordSize)
	copy(recv.body1[:], body)

	if _, _, err := recv.GetUint64(); err != nil {
		t.Fatalf("get uint64: %v", err)
	}
}
