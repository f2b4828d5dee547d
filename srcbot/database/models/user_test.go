package models

import (
	"reflect"
	"testing"
)

func TestUserSetPreservesInsertionOrder(t *testing.T) {
	var set UserSet
	set.Add(User{ID: "zzz", Name: "Zed"})
	set.Add(User{ID: "aaa", Name: "Abe"})
	set.Add(User{ID: "mmm", Name: "Mia"})

	want := []string{"Zed", "Abe", "Mia"}
	if got := set.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestUserSetAddReplacesWithoutReordering(t *testing.T) {
	var set UserSet
	set.Add(User{ID: "u1"})
	set.Add(User{ID: "u2", Name: "Second"})
	set.Add(User{ID: "u1", Name: "First"})

	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	want := []string{"First", "Second"}
	if got := set.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestUserSetNamesFallBackToID(t *testing.T) {
	var set UserSet
	set.Add(User{ID: "guest_Speedy", Name: "Speedy"})
	set.Add(User{ID: "unresolved"})

	want := []string{"Speedy", "unresolved"}
	if got := set.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestUserSetEncodeParseRoundTrip(t *testing.T) {
	var set UserSet
	set.Add(User{ID: "u1", Name: "Alice", Pronouns: "she/her", Type: UserRegistered, Pfp: "https://img/a.png"})
	set.Add(User{ID: "guest_Bob", Name: "Bob", Type: UserGuest})

	encoded, err := set.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := ParseUserSet(encoded)
	if err != nil {
		t.Fatalf("ParseUserSet() error = %v", err)
	}
	if !reflect.DeepEqual(back.Users(), set.Users()) {
		t.Errorf("round trip = %+v, want %+v", back.Users(), set.Users())
	}
}

func TestParseUserSetEmpty(t *testing.T) {
	set, err := ParseUserSet("")
	if err != nil {
		t.Fatalf("ParseUserSet(\"\") error = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("ParseUserSet(\"\") has %d members, want 0", set.Len())
	}
}

func TestUserSetGet(t *testing.T) {
	var set UserSet
	set.Add(User{ID: "u1", Name: "Alice"})

	if u, ok := set.Get("u1"); !ok || u.Name != "Alice" {
		t.Errorf("Get(u1) = (%+v, %v), want Alice", u, ok)
	}
	if _, ok := set.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}
}
