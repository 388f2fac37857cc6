package repo

import "testing"

func TestIsMetadataPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{".got", true},
		{".got/HEAD", true},
		{".got/objects/ab/cdef", true},
		{"src/main.go", false},
		{".gotignore", false},
		{"nested/.got-like/file", false},
	}
	for _, c := range cases {
		if got := isMetadataPath(c.path); got != c.want {
			t.Errorf("isMetadataPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
