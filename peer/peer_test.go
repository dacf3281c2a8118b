package peer

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []ID{
		New("alice", "127.0.0.1", 50051),
		New("bob", "10.0.0.4", 0),
		New("c", "example.org", 65535),
	}
	for _, id := range cases {
		s := id.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if !got.Equal(id) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, id)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"alice-127.0.0.1:50051", // missing @
		"alice@127.0.0.1",       // missing :
		"alice@127.0.0.1:abc",   // non-numeric port
		"@127.0.0.1:50051",      // empty name
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q): expected error, got nil", s)
		}
	}
}

func TestEqual(t *testing.T) {
	a := New("alice", "127.0.0.1", 50051)
	b := New("alice", "127.0.0.1", 50051)
	c := New("alice", "127.0.0.1", 50052)
	if !a.Equal(b) {
		t.Fatal("expected a == b")
	}
	if a.Equal(c) {
		t.Fatal("expected a != c")
	}
}
