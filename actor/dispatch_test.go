package actor

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	target := "Test.Echo:1"
	RegisterMethod(target, func(value any, args []byte) ([]byte, error) {
		return args, nil
	})
	h, ok := Lookup(target)
	if !ok {
		t.Fatalf("expected %q to be registered", target)
	}
	result, err := h(nil, []byte("hello"))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if string(result) != "hello" {
		t.Fatalf("got %q, want hello", result)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	target := "Test.Duplicate:1"
	RegisterMethod(target, func(any, []byte) ([]byte, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterMethod(target, func(any, []byte) ([]byte, error) { return nil, nil })
}

func TestLookupMissing(t *testing.T) {
	if _, ok := Lookup("Nonexistent.Method:1"); ok {
		t.Fatal("expected lookup miss")
	}
}
