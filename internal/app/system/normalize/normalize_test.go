package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jane Doe", "Jane Doe"},
		{"  Jane   Doe  ", "Jane Doe"},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	if got := Status(" Active "); got != "active" {
		t.Errorf("Status = %q, want active", got)
	}
}

func TestQueryParam(t *testing.T) {
	tests := map[string]string{
		" 42 ":      "42",
		"undefined": "",
		"null":      "",
		"":          "",
	}
	for in, want := range tests {
		if got := QueryParam(in); got != want {
			t.Errorf("QueryParam(%q) = %q, want %q", in, got, want)
		}
	}
}
