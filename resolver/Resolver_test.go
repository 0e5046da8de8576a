package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


func TestResolvePlainSegments(t *testing.T) {
	root := t.TempDir()

	cases := []struct {
		requested string
		expected  string
	}{
		{ "/index.html", filepath.Join(root, "index.html") },
		{ "/a/b/c.txt", filepath.Join(root, "a", "b", "c.txt") },
		{ "//index.html", filepath.Join(root, "index.html") },
		{ "/a//b/", filepath.Join(root, "a", "b") },
		{ "/", root },
		{ "/%2e%2e/passwd", filepath.Join(root, "%2e%2e", "passwd") },
		{ "/...", filepath.Join(root, "...") },
		{ "/.hidden", filepath.Join(root, ".hidden") },
	}

	for _, c := range cases {
		resolved, err := Resolve(root, c.requested)
		require.NoError(t, err, c.requested)
		assert.Equal(t, c.expected, resolved.Path(), c.requested)
		assert.Equal(t, root, resolved.Root())
		assert.Equal(t, c.expected, resolved.String())
	}
}

func TestResolveRejectsRelative(t *testing.T) {
	root := t.TempDir()

	for _, requested := range []string{ "", "index.html", "./index.html", "../etc/passwd", "a/b", " /a" } {
		_, err := Resolve(root, requested)
		assert.ErrorIs(t, err, ErrPathNotAbsolute, requested)
	}
}

func TestResolveRejectsIllegalComponents(t *testing.T) {
	root := t.TempDir()

	for _, requested := range []string{
		"/..",
		"/../../etc/passwd",
		"/a/../../etc/passwd",
		"/a/..",
		"/./index.html",
		"/a/./b",
		"/a\\..\\..\\etc",
		"/..\\windows",
		"/a\x00b",
	} {
		_, err := Resolve(root, requested)
		assert.ErrorIs(t, err, ErrIllegalPathComponent, requested)
	}
}

func TestResolveNeverEscapesRoot(t *testing.T) {
	root := t.TempDir()

	for _, requested := range []string{
		"/index.html", "/a/b", "/../x", "/a/../../x", "//../x", "/a/b/../../../x", "/....//x",
	} {
		resolved, err := Resolve(root, requested)
		if err != nil { continue }

		rel, relErr := filepath.Rel(root, resolved.Path())
		require.NoError(t, relErr)
		assert.False(t, strings.HasPrefix(rel, ".."), "%s escaped to %s", requested, resolved.Path())
	}
}

func TestResolveIsPure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0o644))

	first, firstErr := Resolve(root, "/file")
	second, secondErr := Resolve(root, "/file")
	assert.Equal(t, first, second)
	assert.Equal(t, firstErr, secondErr)

	_, firstErr = Resolve(root, "/../file")
	_, secondErr = Resolve(root, "/../file")
	assert.Equal(t, firstErr.Error(), secondErr.Error())
}

func TestResolveDoesNotTouchFilesystem(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")

	resolved, err := Resolve(root, "/missing/file")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "missing", "file"), resolved.Path())

	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr))
}
