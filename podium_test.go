package podium_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/execution"
	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/testutils"
	"github.com/aretw0/podium/pkg/domain"
)

func open(t *testing.T, content string, opts ...podium.Option) (*podium.Presenter, *domain.Presentation) {
	t.Helper()
	p, err := podium.New(testutils.WriteDeck(t, content), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	deck, err := p.Open(context.Background())
	require.NoError(t, err)
	return p, deck
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := podium.New("")
	assert.Error(t, err)
}

func TestNew_UnknownTheme(t *testing.T) {
	_, err := podium.New("deck.md", podium.WithTheme("no-such-theme"))
	assert.Error(t, err)
}

func TestPresenter_PathIsAbsolute(t *testing.T) {
	p, err := podium.New("deck.md")
	require.NoError(t, err)
	defer p.Close()
	assert.True(t, filepath.IsAbs(p.Path()))
}

func TestPresenter_OpenMissingFile(t *testing.T) {
	p, err := podium.New(filepath.Join(t.TempDir(), "missing.md"))
	require.NoError(t, err)
	defer p.Close()
	_, err = p.Open(context.Background())
	assert.Error(t, err)
}

func TestPresenter_RendersVisibleChunks(t *testing.T) {
	p, deck := open(t, "Title\n===\n\nfirst\n\n<!-- pause -->\n\nsecond\n")
	nav := p.Navigator(deck)
	s := render.NewVirtualSurface(60, 20)

	require.NoError(t, p.Renderer(deck).Render(nav.VisibleOperations(), s))
	assert.Contains(t, s.String(), "first")
	assert.NotContains(t, s.String(), "second")

	require.True(t, nav.Next())
	require.NoError(t, p.Renderer(deck).Render(nav.VisibleOperations(), s))
	assert.Contains(t, s.String(), "second")
}

func TestPresenter_AutoSnippetsSettle(t *testing.T) {
	deck := "Auto\n===\n\n```bash +exec_replace\necho replaced\n```\n"
	p, d := open(t, deck, podium.WithExecution(true, true))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx, d))

	st, ok := p.Execution().Snapshot(d.Snippets[0].ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, st.Status)

	s := render.NewVirtualSurface(60, 20)
	require.NoError(t, p.Renderer(d).Render(p.Navigator(d).VisibleOperations(), s))
	assert.Contains(t, s.String(), "replaced")
}

func TestPresenter_SettleHonorsContext(t *testing.T) {
	deck := "Slow\n===\n\n```bash +exec_replace\nsleep 5\n```\n"
	p, d := open(t, deck, podium.WithExecution(true, true))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Settle(ctx, d), context.DeadlineExceeded)
}

func TestPresenter_Validate(t *testing.T) {
	deck := "Checks\n===\n\n```bash +validate\nexit 0\n```\n\n```bash +validate\nexit 4\n```\n\n```bash\necho plain\n```\n"
	p, _ := open(t, deck)

	results := p.Validate(context.Background(), false)
	require.Len(t, results, 2)
	failed := execution.Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, 4, failed[0].ExitCode)
}

func TestPresenter_ReloadKeepsUnchangedSnippets(t *testing.T) {
	path := testutils.WriteDeck(t, "One\n===\n\n```bash +exec\necho hi\n```\n")
	p, err := podium.New(path, podium.WithExecution(true, false))
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	deck, err := p.Open(ctx)
	require.NoError(t, err)
	id := deck.Snippets[0].ID
	_, err = p.Execution().Run(ctx, id)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("One\n===\n\nnew text\n\n```bash +exec\necho hi\n```\n"), 0o644))
	reloaded, err := p.Compile(ctx)
	require.NoError(t, err)
	p.Load(reloaded)

	st, ok := p.Execution().Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, st.Status)
}
