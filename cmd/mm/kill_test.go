package main

import "testing"

func TestIsJoinInvocation(t *testing.T) {
	cases := []struct {
		argv []string
		want bool
	}{
		{[]string{"/usr/local/bin/mm", "join"}, true},
		{[]string{"mm", "join", "--name", "alice"}, true},
		{[]string{"mm", "list"}, false},
		{[]string{"vim"}, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := isJoinInvocation(c.argv); got != c.want {
			t.Errorf("isJoinInvocation(%v) = %v, want %v", c.argv, got, c.want)
		}
	}
}

func TestJoinNameArg(t *testing.T) {
	if got := joinNameArg([]string{"mm", "join", "--name", "alice"}); got != "alice" {
		t.Errorf("got %q, want alice", got)
	}
	if got := joinNameArg([]string{"mm", "join", "--name=bob"}); got != "bob" {
		t.Errorf("got %q, want bob", got)
	}
	if got := joinNameArg([]string{"mm", "join"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
