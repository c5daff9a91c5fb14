package nyarchiver_test

import (
	"fmt"
	"testing"

	"github.com/nercone/nyarchiver"
	"github.com/stretchr/testify/assert"
)

func ExampleReadme() {
	name := nyarchiver.Readme("APP.ZIP", "APP.EXE", "APP.TXT",
		"APP.BIN", "APP.DAT", "STUFF.DAT")
	fmt.Println(name)
	// Output: APP.TXT
}

func TestReadme(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		filename string
		files    []string
		want     string
	}{
		{"NFO #1", "APP.ZIP", []string{"APP.EXE", "APP.NFO"}, "APP.NFO"},
		{"NFO tar", "app.tar.gz", []string{"README", "app.nfo"}, "app.nfo"},
		{"TXT #1", "APP.ZIP", []string{"APP.EXE", "APP.TXT", "README.TXT"}, "APP.TXT"},
		{"README", "APP.ZIP", []string{"STUFF.NFO", "docs/README.md"}, "docs/README.md"},
		{"READ.ME", "APP.ZIP", []string{"STUFF.TXT", "READ.ME"}, "READ.ME"},
		{"NFO #2", "APP.ZIP", []string{"APP.EXE", "STUFF.NFO"}, "STUFF.NFO"},
		{"DIZ #1", "APP.ZIP", []string{"APP.EXE", "FILE_ID.DIZ", "APP.DIZ"}, "FILE_ID.DIZ"},
		{"DIZ #2", "APP.ZIP", []string{"APP.EXE", "APP.DIZ"}, "APP.DIZ"},
		{"TXT #2", "APP.ZIP", []string{"APP.EXE", "STUFF.TXT"}, "STUFF.TXT"},
		{"DIZ #3", "APP.ZIP", []string{"APP.EXE", "STUFF.DIZ"}, "STUFF.DIZ"},
		{"Shallow", "APP.ZIP", []string{"a/b/NOTES.TXT", "c/NOTES.TXT"}, "c/NOTES.TXT"},
		{"Sorted", "APP.ZIP", []string{"B.TXT", "A.TXT"}, "A.TXT"},
		{"Unnamed", "", []string{"STUFF.TXT", "INFO.NFO"}, "INFO.NFO"},
		{"None", "APP.ZIP", []string{"APP.EXE", "STUFF.DAT", "MAKEFILE"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := nyarchiver.Readme(tt.filename, tt.files...)
			assert.Equal(t, tt.want, got)
		})
	}
}
