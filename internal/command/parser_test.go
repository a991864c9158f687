package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/pkg/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Command
	}{
		{"<!-- pause -->", domain.Pause{}},
		{"<!--end_slide-->", domain.EndSlide{}},
		{"<!-- column_layout: [1, 2] -->", domain.ColumnLayout{Widths: []int{1, 2}}},
		{"<!-- column: 1 -->", domain.Column{Index: 1}},
		{"<!-- reset_layout -->", domain.ResetLayout{}},
		{"<!-- font_size: 3 -->", domain.FontSize{Size: 3}},
		{"<!-- alignment: center -->", domain.SetAlignment{Alignment: domain.AlignCenter}},
		{"<!-- jump_to_middle -->", domain.JumpToMiddle{}},
		{"<!-- new_line -->", domain.NewLines{Count: 1}},
		{"<!-- newline -->", domain.NewLines{Count: 1}},
		{"<!-- new_lines: 4 -->", domain.NewLines{Count: 4}},
		{"<!-- incremental_lists: true -->", domain.IncrementalLists{Enabled: true}},
		{"<!-- list_item_newlines: 2 -->", domain.ListItemNewlines{Count: 2}},
		{"<!-- speaker_note: remember the demo -->", domain.SpeakerNote{Text: "remember the demo"}},
		{"<!-- include: other.md -->", domain.Include{Path: "other.md"}},
		{"<!-- skip_slide -->", domain.SkipSlide{}},
		{"<!-- no_footer -->", domain.NoFooter{}},
		{"<!-- snippet_output: demo -->", domain.SnippetOutput{ID: "demo"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, ok, err := Parse(tt.input, 1, "")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseMultilineSpeakerNote(t *testing.T) {
	cmd, ok, err := Parse("<!--\nspeaker_note: |\n  first\n  second\n-->", 4, "")
	require.NoError(t, err)
	require.True(t, ok)
	note, isNote := cmd.(domain.SpeakerNote)
	require.True(t, isNote)
	assert.Equal(t, "first\nsecond", strings.TrimSpace(note.Text))
}

func TestParseInert(t *testing.T) {
	tests := map[string]struct {
		input  string
		prefix string
	}{
		"multi line":      {input: "<!-- this is\na regular comment -->"},
		"missing prefix":  {input: "<!-- pause -->", prefix: "cmd:"},
		"vim modeline":    {input: "<!-- vim: set ft=markdown: -->"},
		"fold open":       {input: "<!-- {{{ section -->"},
		"fold close":      {input: "<!-- }}} -->"},
		"empty":           {input: "<!-- -->"},
		"not a comment":   {input: "<div>pause</div>"},
		"prefix mismatch": {input: "<!-- other: pause -->", prefix: "cmd:"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, ok, err := Parse(tt.input, 1, tt.prefix)
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, cmd)
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	cmd, ok, err := Parse("<!-- cmd:pause -->", 1, "cmd:")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Pause{}, cmd)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"<!-- potato -->",
		"<!-- font_size: 8 -->",
		"<!-- font_size: 0 -->",
		"<!-- font_size: big -->",
		"<!-- column_layout: [] -->",
		"<!-- column_layout: [1, 0] -->",
		"<!-- alignment: justify -->",
		"<!-- list_item_newlines: 0 -->",
		"<!-- pause: 3 -->",
		"<!-- column -->",
		"<!-- 42 -->",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, ok, err := Parse(input, 7, "")
			require.Error(t, err)
			assert.False(t, ok)

			var perr *domain.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, 7, perr.Line)
		})
	}
}
