// Package fileops provides file and folder tools confined to a root
// directory: agents can read, write, delete and rename files and create,
// delete and list folders below that root.
//
// Paths are interpreted relative to the root with forward or native
// separators. Absolute paths and paths climbing out of the root are rejected
// with ErrOutsideRoot. Confinement is lexical, so symbolic links placed
// inside the root are followed.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool"
)

// Registered tool names.
const (
	ReadFileName     = "read_file"
	WriteFileName    = "write_file"
	DeleteFileName   = "delete_file"
	RenameFileName   = "rename_file"
	CreateFolderName = "create_folder"
	DeleteFolderName = "delete_folder"
	ListFoldersName  = "list_folders"
	ListFilesName    = "list_files"
)

// Done is the result of a successful mutating operation.
const Done = "DONE"

var (
	// ErrOutsideRoot is returned for paths that leave the tool root.
	ErrOutsideRoot = errors.New("path escapes the tool root")
	// ErrDeleteRoot is returned when asked to delete the tool root itself.
	ErrDeleteRoot = errors.New("refusing to delete the tool root")
)

// Options configure the file tools.
type Options struct {
	// ReadOnly limits the set to read_file, list_folders and list_files.
	ReadOnly bool
	Logger   logging.Logger
}

// Names returns the tool names New registers for the given mode.
func Names(readOnly bool) []string {
	if readOnly {
		return []string{ReadFileName, ListFoldersName, ListFilesName}
	}
	return []string{
		ReadFileName, WriteFileName, DeleteFileName, RenameFileName,
		CreateFolderName, DeleteFolderName, ListFoldersName, ListFilesName,
	}
}

type files struct {
	root   string
	logger logging.Logger
}

// New returns the file tools rooted at dir.
func New(dir string, optFns ...func(o *Options)) []tool.Tool {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	f := &files{root: dir, logger: logging.OrNoOp(opts.Logger)}

	pathParam := func(desc string) tool.Signature {
		return tool.Signature{{Name: "path", Type: tool.TypeString, Description: desc}}
	}

	tools := []tool.Tool{
		f.wrap(ReadFileName, "Reads a given file.",
			tool.Signature{{Name: "filename", Type: tool.TypeString, Description: "file to read"}},
			f.readFile),
		f.wrap(ListFoldersName, "Lists all folders in the given path.", pathParam("folder to list"), f.listFolders),
		f.wrap(ListFilesName, "Lists all files in the given path.", pathParam("folder to list"), f.listFiles),
	}
	if opts.ReadOnly {
		return tools
	}
	return append(tools,
		f.wrap(WriteFileName, "Writes to a given file.",
			tool.Signature{
				{Name: "filename", Type: tool.TypeString, Description: "file to write"},
				{Name: "content", Type: tool.TypeString, Description: "text replacing the file content"},
			},
			f.writeFile),
		f.wrap(DeleteFileName, "Deletes a file.",
			tool.Signature{{Name: "filename", Type: tool.TypeString, Description: "file to delete"}},
			f.deleteFile),
		f.wrap(RenameFileName, "Renames a file. It takes the old file path and the new file name, which is resolved in the same folder. It returns DONE when the file was renamed.",
			tool.Signature{
				{Name: "old_path", Type: tool.TypeString, Description: "file to rename"},
				{Name: "new_name", Type: tool.TypeString, Description: "new file name"},
			},
			f.renameFile),
		f.wrap(CreateFolderName, "Creates a folder by the given name and path.", pathParam("folder to create"), f.createFolder),
		f.wrap(DeleteFolderName, "Deletes a folder by the given path.", pathParam("folder to delete"), f.deleteFolder),
	)
}

func (f *files) wrap(name, description string, sig tool.Signature, fn tool.Func) tool.Tool {
	return tool.NewFunction(name, description, sig, func(ctx context.Context, args tool.Args) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.logger.Info("fileops.request", "tool", name)
		return fn(ctx, args)
	})
}

// resolve maps a root relative path onto the file system.
func (f *files) resolve(p string) (string, error) {
	if p == "" {
		return "", errors.New("path must not be empty")
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || !filepath.IsLocal(p) {
		return "", fmt.Errorf("%s: %w", p, ErrOutsideRoot)
	}
	return filepath.Join(f.root, p), nil
}

func (f *files) readFile(_ context.Context, args tool.Args) (any, error) {
	path, err := f.resolve(args.String("filename"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (f *files) writeFile(_ context.Context, args tool.Args) (any, error) {
	path, err := f.resolve(args.String("filename"))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(args.String("content")), 0o644); err != nil {
		return nil, err
	}
	return Done, nil
}

func (f *files) deleteFile(_ context.Context, args tool.Args) (any, error) {
	path, err := f.resolve(args.String("filename"))
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a folder", args.String("filename"))
	}
	if err := os.Remove(path); err != nil {
		return nil, err
	}
	return Done, nil
}

func (f *files) renameFile(_ context.Context, args tool.Args) (any, error) {
	oldRel := args.String("old_path")
	oldPath, err := f.resolve(oldRel)
	if err != nil {
		return nil, err
	}
	newName := args.String("new_name")
	if newName == "" {
		return nil, errors.New("new name must not be empty")
	}
	newPath, err := f.resolve(filepath.Join(filepath.Dir(filepath.FromSlash(oldRel)), filepath.FromSlash(newName)))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(oldPath); err != nil {
		return nil, err
	}
	if _, err := os.Stat(newPath); err == nil {
		return nil, fmt.Errorf("%s: %w", newName, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return nil, err
	}
	return Done, nil
}

func (f *files) createFolder(_ context.Context, args tool.Args) (any, error) {
	path, err := f.resolve(args.String("path"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return Done, nil
}

// deleteFolder removes a folder with its content. A missing folder is not an
// error.
func (f *files) deleteFolder(_ context.Context, args tool.Args) (any, error) {
	rel := args.String("path")
	path, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	if filepath.Clean(filepath.FromSlash(rel)) == "." {
		return nil, ErrDeleteRoot
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, err
	}
	return Done, nil
}

func (f *files) listFolders(_ context.Context, args tool.Args) (any, error) {
	return f.list(args.String("path"), func(e fs.DirEntry) bool { return e.IsDir() })
}

func (f *files) listFiles(_ context.Context, args tool.Args) (any, error) {
	return f.list(args.String("path"), func(e fs.DirEntry) bool { return e.Type().IsRegular() })
}

// list returns the root relative, slash separated paths of the matching
// entries of a folder in name order. A missing folder lists as empty.
func (f *files) list(rel string, keep func(fs.DirEntry) bool) ([]string, error) {
	if rel == "" {
		rel = "."
	}
	path, err := f.resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, e := range entries {
		if keep(e) {
			out = append(out, filepath.ToSlash(filepath.Join(filepath.FromSlash(rel), e.Name())))
		}
	}
	return out, nil
}
