package domain

import (
	"testing"
)

func TestParseChannels(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Channel
	}{
		{"single", "push", []Channel{ChannelPush}},
		{"multiple", "push,email,in_app", []Channel{ChannelPush, ChannelEmail, ChannelInApp}},
		{"whitespace", " push , sms ", []Channel{ChannelPush, ChannelSMS}},
		{"unknown dropped", "push,fax,email", []Channel{ChannelPush, ChannelEmail}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseChannels(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseChannels(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseChannels(%q)[%d] = %s, want %s", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChannelSet_Contains(t *testing.T) {
	set := ChannelSet{ChannelPush, ChannelInApp}
	if !set.Contains(ChannelPush) {
		t.Error("expected set to contain push")
	}
	if set.Contains(ChannelEmail) {
		t.Error("expected set not to contain email")
	}
}

func TestChannelSet_ValueRoundTrip(t *testing.T) {
	set := ChannelSet{ChannelPush, ChannelEmail}

	v, err := set.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "push,email" {
		t.Errorf("Value() = %v, want push,email", v)
	}

	var scanned ChannelSet
	if err := scanned.Scan("push,email"); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(scanned) != 2 || scanned[0] != ChannelPush || scanned[1] != ChannelEmail {
		t.Errorf("Scan() = %v", scanned)
	}
}

func TestChannelSet_ValueInvalid(t *testing.T) {
	set := ChannelSet{Channel("fax")}
	if _, err := set.Value(); err == nil {
		t.Error("expected error for invalid channel")
	}
}
