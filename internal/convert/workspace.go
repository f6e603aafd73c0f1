package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spherical/pdf-bw/internal/domain"
)

// Workspace is the temporary directory tree owned by one batch run.
// Close removes it and everything in it.
type Workspace struct {
	root    string
	inputs  string
	pages   string
	outputs string
}

// NewWorkspace creates a fresh workspace under parent, or under the OS
// temp directory when parent is empty.
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, domain.IOError(fmt.Sprintf("failed to create temp parent %s", parent), err)
		}
	}

	root, err := os.MkdirTemp(parent, "pdf-bw-*")
	if err != nil {
		return nil, domain.IOError("failed to create workspace", err)
	}

	ws := &Workspace{
		root:    root,
		inputs:  filepath.Join(root, "input"),
		pages:   filepath.Join(root, "pages"),
		outputs: filepath.Join(root, "output"),
	}
	for _, dir := range []string{ws.inputs, ws.pages, ws.outputs} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			os.RemoveAll(root)
			return nil, domain.IOError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	return ws, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// SaveInput writes doc into the workspace and returns its path.
func (w *Workspace) SaveInput(doc domain.Document) (string, error) {
	path := filepath.Join(w.inputs, doc.Name)
	if err := os.WriteFile(path, doc.Content, 0o600); err != nil {
		return "", domain.IOError(fmt.Sprintf("failed to save %s", doc.Name), err)
	}
	return path, nil
}

// PagePath returns a unique path for a binarized page image. The name is
// independent of the document name so long input names stay within the
// file system's name limit.
func (w *Workspace) PagePath(page int) string {
	return filepath.Join(w.pages, fmt.Sprintf("%s_page_%04d.png", uuid.NewString(), page))
}

// OutputPath returns the path of an output document.
func (w *Workspace) OutputPath(name string) string {
	return filepath.Join(w.outputs, name)
}

// RemoveFiles deletes paths, ignoring files that are already gone.
func (w *Workspace) RemoveFiles(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PageFiles lists the page images currently in the workspace.
func (w *Workspace) PageFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(w.pages, "*.png"))
}

// Close removes the workspace. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.root == "" {
		return nil
	}
	err := os.RemoveAll(w.root)
	w.root = ""
	if err != nil {
		return domain.IOError("failed to remove workspace", err)
	}
	return nil
}
