package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/podium/pkg/domain"
)

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"dark", "light", "terminal"}, Names())

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			th, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, th.Name)
			assert.Equal(t, domain.AlignCenter, th.Alignment(SlideTitle))
			assert.True(t, th.Style(SlideTitle).Bold)
			assert.True(t, th.Style(ModalSelection).Bold)
		})
	}

	_, err := Builtin("nope")
	assert.ErrorContains(t, err, "unknown theme")
}

func TestStyleInheritsDefault(t *testing.T) {
	th, err := Builtin("dark")
	require.NoError(t, err)

	s := th.Style(Heading(1))
	assert.Equal(t, domain.Color("#040312"), s.Bg)
	assert.Equal(t, domain.Color("#b4ccff"), s.Fg)
	assert.Equal(t, domain.AlignLeft, th.Alignment(Paragraph))
	assert.Equal(t, "█ ", th.Prefix(Heading(1)))
}

func TestOverride(t *testing.T) {
	th, err := Builtin("dark")
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("elements:\n  slide_title:\n    fg: \"#ff0000\"\n"), &node))

	over, err := th.Override(node.Content[0])
	require.NoError(t, err)
	assert.Equal(t, domain.Color("#ff0000"), over.Style(SlideTitle).Fg)
	assert.Equal(t, domain.Color("#ee9322"), th.Style(SlideTitle).Fg, "original untouched")
	assert.Equal(t, domain.Color("#b4ccff"), over.Style(Heading(1)).Fg)
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("name: custom\ndefault:\n  fg: \"#111111\"\n"), 0o644))

	th, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "custom", th.Name)
	assert.Equal(t, domain.Color("#111111"), th.Style(Paragraph).Fg)
	assert.Equal(t, "{current} / {total}", th.FooterTemplate)
}
