package parser

import "testing"

func TestNewDecoder(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		wantErr bool
	}{
		{name: "latin1", charset: "ISO-8859-1"},
		{name: "windows-1252", charset: "windows-1252"},
		{name: "shift jis", charset: "Shift_JIS"},
		{name: "utf-16", charset: "UTF-16LE", wantErr: true},
		{name: "unknown", charset: "not-a-charset", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(tt.charset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDecoder(%q) error = %v, wantErr %v", tt.charset, err, tt.wantErr)
			}
			if !tt.wantErr && d.Name() != tt.charset {
				t.Errorf("Name() = %q, want %q", d.Name(), tt.charset)
			}
		})
	}
}

func TestDecoder_Decode(t *testing.T) {
	d, err := NewDecoder("windows-1252")
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.Decode([]byte("price \x80 5"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "price € 5" {
		t.Errorf("Decode() = %q, want %q", got, "price € 5")
	}
}

func TestDecoder_NilPassesThrough(t *testing.T) {
	var d *Decoder
	got, err := d.Decode([]byte("plain"))
	if err != nil || got != "plain" {
		t.Errorf("Decode() = %q, %v; want %q, nil", got, err, "plain")
	}
}
