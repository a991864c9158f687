package ansi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/pkg/domain"
)

func TestDecodePlain(t *testing.T) {
	lines := Decode("hello\nworld\n", domain.Style{})
	require.Len(t, lines, 2)
	assert.Equal(t, "hello", lines[0].Text())
	assert.Equal(t, "world", lines[1].Text())

	assert.Nil(t, Decode("", domain.Style{}))
}

func TestDecodeColors(t *testing.T) {
	lines := Decode("\x1b[1;31mred\x1b[0m plain \x1b[38;2;1;2;3mrgb\x1b[38;5;200mpal", domain.Style{Bg: "#000000"})
	require.Len(t, lines, 1)

	spans := lines[0]
	require.Len(t, spans, 4)
	assert.Equal(t, domain.Span{Text: "red", Style: domain.Style{Fg: "1", Bg: "#000000", Bold: true}}, spans[0])
	assert.Equal(t, domain.Span{Text: " plain ", Style: domain.Style{Bg: "#000000"}}, spans[1])
	assert.Equal(t, domain.Color("#010203"), spans[2].Style.Fg)
	assert.Equal(t, domain.Color("200"), spans[3].Style.Fg)
}

func TestDecodeStyleCarriesAcrossLines(t *testing.T) {
	lines := Decode("\x1b[32mgreen\nstill green\x1b[39m", domain.Style{})
	require.Len(t, lines, 2)
	assert.Equal(t, domain.Color("2"), lines[1][0].Style.Fg)
}

func TestDecodeDropsOtherSequences(t *testing.T) {
	lines := Decode("\x1b[2Kclear\x1b]0;title\aend\rfinal", domain.Style{})
	require.Len(t, lines, 1)
	assert.Equal(t, "final", lines[0].Text())

	lines = Decode("a\x1b[2Kb\x1b]0;title\ac", domain.Style{})
	assert.Equal(t, "abc", lines[0].Text())
}
