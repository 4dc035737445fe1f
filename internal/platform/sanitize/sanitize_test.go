package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ana Lima", "Ana Lima"},
		{"  padded  ", "padded"},
		{"<script>alert(1)</script>Bob", "Bob"},
		{"<b>Dr.</b> O'Brien", "Dr. O'Brien"},
		{"Take 2 tablets & rest", "Take 2 tablets & rest"},
		{`<img src=x onerror="alert(1)">`, ""},
	}
	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFields(t *testing.T) {
	name, addr := "<i>Ana</i>", " 1 Main St "
	Fields(&name, &addr, nil)
	if name != "Ana" || addr != "1 Main St" {
		t.Errorf("unexpected result %q %q", name, addr)
	}
}
