package state

import "testing"

func TestScopePrefixSafety(t *testing.T) {
	cases := []struct {
		a, b Scope
	}{
		{User("ab"), User("abc")},
		{User("a"), User("a2")},
		{Session("x"), Agent("x")},
		{Custom("foo"), Custom("foobar")},
	}
	for _, c := range cases {
		if c.a.Prefix() == c.b.Prefix() {
			t.Fatalf("expected distinct prefixes for %v and %v, got %q", c.a, c.b, c.a.Prefix())
		}
		keyA := c.a.StorageKey("k")
		if _, ok := c.b.TrimPrefix(keyA); ok {
			t.Fatalf("key %q for scope %v should not be trimmable by scope %v", keyA, c.a, c.b)
		}
	}
}

func TestScopeStorageKeyRoundTrip(t *testing.T) {
	scope := Session("sess-1")
	key := scope.StorageKey("greeting")
	trimmed, ok := scope.TrimPrefix(key)
	if !ok || trimmed != "greeting" {
		t.Fatalf("expected round trip to yield %q, got %q (ok=%v)", "greeting", trimmed, ok)
	}
}

func TestGlobalScopeHasNoID(t *testing.T) {
	if Global().String() != "global" {
		t.Fatalf("expected Global().String() == %q, got %q", "global", Global().String())
	}
}
