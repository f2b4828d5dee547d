package models

import (
	"reflect"
	"testing"
	"time"
)

func TestPlayerSetEncodeParse(t *testing.T) {
	tests := []struct {
		name    string
		set     PlayerSet
		encoded string
	}{
		{"single", PlayerSet{"abc123"}, "abc123"},
		{"multiple", PlayerSet{"abc123", "guest_Speedy"}, "abc123, guest_Speedy"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Encode()
			if got != tt.encoded {
				t.Errorf("Encode() = %q, want %q", got, tt.encoded)
			}
			back := ParsePlayerSet(got)
			if !reflect.DeepEqual(back, tt.set) {
				t.Errorf("ParsePlayerSet(%q) = %v, want %v", got, back, tt.set)
			}
		})
	}
}

func TestPlayerSetEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b PlayerSet
		want bool
	}{
		{"same order", PlayerSet{"a", "b"}, PlayerSet{"a", "b"}, true},
		{"different order", PlayerSet{"a", "b"}, PlayerSet{"b", "a"}, true},
		{"different length", PlayerSet{"a"}, PlayerSet{"a", "b"}, false},
		{"different members", PlayerSet{"a", "b"}, PlayerSet{"a", "c"}, false},
		{"duplicate counts matter", PlayerSet{"a", "a"}, PlayerSet{"a", "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVarSelectionRoundTrip(t *testing.T) {
	sel := VarSelection{"var1": "choice1", "var2": "choice2"}
	encoded, err := sel.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := ParseVarSelection(encoded)
	if err != nil {
		t.Fatalf("ParseVarSelection() error = %v", err)
	}
	if !reflect.DeepEqual(back, sel) {
		t.Errorf("round trip = %v, want %v", back, sel)
	}
}

func TestVarSelectionNilEncodesAsEmptyObject(t *testing.T) {
	var sel VarSelection
	encoded, err := sel.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if encoded != "{}" {
		t.Errorf("Encode() = %q, want {}", encoded)
	}
}

func TestParseVarSelectionEmpty(t *testing.T) {
	sel, err := ParseVarSelection("")
	if err != nil {
		t.Fatalf("ParseVarSelection(\"\") error = %v", err)
	}
	if len(sel) != 0 {
		t.Errorf("ParseVarSelection(\"\") = %v, want empty", sel)
	}
}

func TestEncodeNullableDate(t *testing.T) {
	if got := EncodeNullableDate(nil); got != nil {
		t.Errorf("EncodeNullableDate(nil) = %v, want nil", got)
	}
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := EncodeNullableDate(&d); got != "2024-03-15" {
		t.Errorf("EncodeNullableDate() = %v, want 2024-03-15", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)
	encoded := EncodeDate(d)
	back, err := ParseDate(encoded)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", encoded, err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestGuestID(t *testing.T) {
	if got := GuestID("Speedy"); got != "guest_Speedy" {
		t.Errorf("GuestID() = %q, want guest_Speedy", got)
	}
}
