package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][]string
	}{
		{
			name:    "plain rows",
			content: "a,b,c\n1,2,3\n",
			want:    [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:    "no trailing newline",
			content: "a,b\n1,2",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "quoted comma",
			content: "name,address\nRavi,\"12, MG Road\"\n",
			want:    [][]string{{"name", "address"}, {"Ravi", "12, MG Road"}},
		},
		{
			name:    "quoted newline stays in field",
			content: "notes\n\"line one\nline two\"\n",
			want:    [][]string{{"notes"}, {"line one\nline two"}},
		},
		{
			name:    "escaped quotes",
			content: "studio\n\"Say \"\"cheese\"\"\"\n",
			want:    [][]string{{"studio"}, {`Say "cheese"`}},
		},
		{
			name:    "crlf line endings",
			content: "a,b\r\n1,2\r\n",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "empty fields preserved mid row",
			content: "a,,c\n",
			want:    [][]string{{"a", "", "c"}},
		},
		{
			name:    "trailing empty rows dropped",
			content: "a,b\n1,2\n\n,\n",
			want:    [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:    "empty input",
			content: "",
			want:    nil,
		},
		{
			name:    "unterminated quote consumes rest of input",
			content: "a,b\n\"never closed,still here\nmore",
			want:    [][]string{{"a", "b"}, {"never closed,still here\nmore"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.content))
		})
	}
}
