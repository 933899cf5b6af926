package linkcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks_ClassifiesInternalAndExternal(t *testing.T) {
	doc := `<html><body>
<a href="/posts/hello/">hello</a>
<a href="https://example.com/x">ext</a>
<img src="logo.png">
<a href="#section">frag</a>
</body></html>`

	links, err := ExtractLinks(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, links, 4)
	require.True(t, links[0].Internal)
	require.False(t, links[1].Internal)
	require.True(t, links[2].Internal)
	require.False(t, links[3].Internal) // pure fragment, current page
}

func writeArtifact(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestScanOutputTree_ReportsBrokenInternalLinks(t *testing.T) {
	out := t.TempDir()
	writeArtifact(t, out, "index.html",
		`<a href="/posts/hello/">ok</a> <a href="/posts/missing/">broken</a> <a href="https://example.com">ext</a>`)
	writeArtifact(t, out, "posts/hello/index.html", `<a href="../../index.html">up</a>`)

	broken, err := ScanOutputTree(out)
	require.NoError(t, err)
	require.Len(t, broken, 1)
	require.Equal(t, "index.html", broken[0].Source)
	require.Equal(t, "/posts/missing/", broken[0].Target)
}

func TestScanOutputTree_DirectoryTargetNeedsIndex(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "posts", "empty"), 0o750))
	writeArtifact(t, out, "index.html", `<a href="/posts/empty/">no index</a>`)

	broken, err := ScanOutputTree(out)
	require.NoError(t, err)
	require.Len(t, broken, 1)
}

func TestScanOutputTree_CleanTree(t *testing.T) {
	out := t.TempDir()
	writeArtifact(t, out, "index.html", `<p>no links</p>`)

	broken, err := ScanOutputTree(out)
	require.NoError(t, err)
	require.Empty(t, broken)
}
