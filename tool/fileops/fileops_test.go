package fileops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/tool"
)

func newRegistry(t *testing.T, dir string, optFns ...func(o *Options)) *tool.Registry {
	t.Helper()
	return tool.NewRegistry().MustRegister(New(dir, optFns...)...)
}

func TestFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	reg := newRegistry(t, dir)
	ctx := context.Background()

	out, err := reg.Invoke(ctx, CreateFolderName, tool.Args{"path": "project/src"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	out, err = reg.Invoke(ctx, WriteFileName, tool.Args{"filename": "project/src/main.txt", "content": "hello"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	out, err = reg.Invoke(ctx, ReadFileName, tool.Args{"filename": "project/src/main.txt"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = reg.Invoke(ctx, RenameFileName, tool.Args{"old_path": "project/src/main.txt", "new_name": "app.txt"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.FileExists(t, filepath.Join(dir, "project", "src", "app.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "project", "src", "main.txt"))

	out, err = reg.Invoke(ctx, ListFilesName, tool.Args{"path": "project/src"})
	require.NoError(t, err)
	assert.Equal(t, `["project/src/app.txt"]`, out)

	out, err = reg.Invoke(ctx, ListFoldersName, tool.Args{"path": "project"})
	require.NoError(t, err)
	assert.Equal(t, `["project/src"]`, out)

	out, err = reg.Invoke(ctx, DeleteFileName, tool.Args{"filename": "project/src/app.txt"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	out, err = reg.Invoke(ctx, DeleteFolderName, tool.Args{"path": "project"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.NoDirExists(t, filepath.Join(dir, "project"))
}

func TestPathsOutsideRootAreRejected(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "root")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("s3cr3t"), 0o600))
	reg := newRegistry(t, dir)
	ctx := context.Background()

	for _, args := range []struct {
		name string
		args tool.Args
	}{
		{ReadFileName, tool.Args{"filename": "../secret.txt"}},
		{ReadFileName, tool.Args{"filename": filepath.Join(parent, "secret.txt")}},
		{WriteFileName, tool.Args{"filename": "a/../../x.txt", "content": "x"}},
		{DeleteFileName, tool.Args{"filename": "../secret.txt"}},
		{DeleteFolderName, tool.Args{"path": ".."}},
		{ListFilesName, tool.Args{"path": "../"}},
	} {
		_, err := reg.Invoke(ctx, args.name, args.args)
		assert.ErrorIs(t, err, ErrOutsideRoot, args.name)
	}
	assert.FileExists(t, filepath.Join(parent, "secret.txt"))
}

func TestRenameEscapeAndConflict(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
	reg := newRegistry(t, dir)
	ctx := context.Background()

	_, err := reg.Invoke(ctx, RenameFileName, tool.Args{"old_path": "a.txt", "new_name": "b.txt"})
	require.ErrorIs(t, err, fs.ErrExist)

	_, err = reg.Invoke(ctx, RenameFileName, tool.Args{"old_path": "a.txt", "new_name": "../a.txt"})
	require.ErrorIs(t, err, ErrOutsideRoot)

	_, err = reg.Invoke(ctx, RenameFileName, tool.Args{"old_path": "missing.txt", "new_name": "c.txt"})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDeleteEdgeCases(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	reg := newRegistry(t, dir)
	ctx := context.Background()

	_, err := reg.Invoke(ctx, DeleteFolderName, tool.Args{"path": "."})
	require.ErrorIs(t, err, ErrDeleteRoot)
	assert.DirExists(t, dir)

	_, err = reg.Invoke(ctx, DeleteFileName, tool.Args{"filename": "sub"})
	require.Error(t, err)
	assert.DirExists(t, filepath.Join(dir, "sub"))

	_, err = reg.Invoke(ctx, DeleteFileName, tool.Args{"filename": "gone.txt"})
	require.ErrorIs(t, err, fs.ErrNotExist)

	out, err := reg.Invoke(ctx, DeleteFolderName, tool.Args{"path": "never-created"})
	require.NoError(t, err)
	assert.Equal(t, Done, out)
}

func TestListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o600))
	reg := newRegistry(t, dir)
	ctx := context.Background()

	out, err := reg.Invoke(ctx, ListFilesName, tool.Args{"path": "."})
	require.NoError(t, err)
	assert.Equal(t, `["a.txt","b.txt"]`, out)

	out, err = reg.Invoke(ctx, ListFoldersName, tool.Args{"path": "."})
	require.NoError(t, err)
	assert.Equal(t, `["logs"]`, out)

	out, err = reg.Invoke(ctx, ListFilesName, tool.Args{"path": "nowhere"})
	require.NoError(t, err)
	assert.Equal(t, `[]`, out)
}

func TestReadOnly(t *testing.T) {
	reg := newRegistry(t, t.TempDir(), func(o *Options) { o.ReadOnly = true })

	assert.ElementsMatch(t, Names(true), reg.Names())
	_, ok := reg.Get(WriteFileName)
	assert.False(t, ok)

	full := newRegistry(t, t.TempDir())
	assert.ElementsMatch(t, Names(false), full.Names())
}

func TestCancelledContext(t *testing.T) {
	reg := newRegistry(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.Invoke(ctx, ListFilesName, tool.Args{"path": "."})
	assert.ErrorIs(t, err, context.Canceled)
}
