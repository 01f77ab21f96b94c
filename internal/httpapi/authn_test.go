package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer   abc", "abc", true},
		{"", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer ", "", false},
		{"Bear", "", false},
	}
	for _, tc := range cases {
		token, err := extractBearerToken(tc.header)
		if (err == nil) != tc.ok || token != tc.token {
			t.Fatalf("extractBearerToken(%q) = %q, %v", tc.header, token, err)
		}
	}
}
