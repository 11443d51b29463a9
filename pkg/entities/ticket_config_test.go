package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{
			name: "Valid",
			text: "What do you need help with?",
			want: nil,
		},
		{
			name: "Empty",
			text: "",
			want: ErrTextEmpty,
		},
		{
			name: "MaxLength",
			text: strings.Repeat("a", MaxQuestionLen),
			want: nil,
		},
		{
			name: "TooLong",
			text: strings.Repeat("a", MaxQuestionLen+1),
			want: ErrTextTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidateText(tt.text))
		})
	}
}

func TestTicketConfigRenumber(t *testing.T) {
	cfg := &TicketConfig{
		Questions: []Question{
			{Num: 4, Text: "first"},
			{Num: 9, Text: "second"},
		},
	}

	cfg.Renumber()

	require.Equal(t, 1, cfg.Questions[0].Num)
	require.Equal(t, 2, cfg.Questions[1].Num)
}

func TestTicketChannelName(t *testing.T) {
	ticket := &Ticket{Number: 12, Username: "gearsandcogs"}
	require.Equal(t, "help-12-gears", ticket.ChannelName("help"))
}
