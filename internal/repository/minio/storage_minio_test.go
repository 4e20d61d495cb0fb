package minio

import "testing"

func TestPublicBaseURL(t *testing.T) {
	cases := []struct {
		endpoint, public string
		ssl              bool
		want             string
	}{
		{"localhost:9000", "", false, "http://localhost:9000"},
		{"minio.internal:9000", "", true, "https://minio.internal:9000"},
		{"minio:9000", " https://cdn.example.com/ ", false, "https://cdn.example.com"},
	}
	for _, tc := range cases {
		if got := publicBaseURL(tc.endpoint, tc.public, tc.ssl); got != tc.want {
			t.Fatalf("publicBaseURL(%q, %q, %v) = %q, want %q", tc.endpoint, tc.public, tc.ssl, got, tc.want)
		}
	}
}

func TestObjectURLEscapesSegments(t *testing.T) {
	got := objectURL("https://cdn.example.com", "profiles", "profiles/abc/my pic.png")
	want := "https://cdn.example.com/profiles/profiles/abc/my%20pic.png"
	if got != want {
		t.Fatalf("objectURL = %q, want %q", got, want)
	}
}
