package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{
			name: "Mention",
			arg:  "<#123456789>",
			want: "123456789",
		},
		{
			name: "BareID",
			arg:  "123456789",
			want: "123456789",
		},
		{
			name: "Whitespace",
			arg:  "  <#42>  ",
			want: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseChannelID(tt.arg))
		})
	}
}

func TestParseRoleMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "Single",
			content: "<@&111>",
			want:    []string{"111"},
		},
		{
			name:    "MultipleWithText",
			content: "these please: <@&111> and <@&222>",
			want:    []string{"111", "222"},
		},
		{
			name:    "UserMentionIgnored",
			content: "<@333> is not a role",
			want:    []string{},
		},
		{
			name:    "Unterminated",
			content: "<@&111",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseRoleMentions(tt.content))
		})
	}
}
