package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"bibleref/internal/config"
	"bibleref/internal/fileutil"
	"bibleref/internal/logging"
	"bibleref/internal/rewrite"
)

// ErrNotMarkdown is returned when a document handle does not point at a
// markdown note inside the vault.
var ErrNotMarkdown = errors.New("not a markdown note")

const (
	noteExtension     = ".md"
	lockRetryInterval = 50 * time.Millisecond
)

// Document identifies a note in the vault.
type Document struct {
	Path    string `json:"path"`
	RelPath string `json:"rel_path"`
}

// Store enumerates and edits notes under a vault root.
type Store struct {
	root   string
	lock   *flock.Flock
	logger *slog.Logger
}

// New returns a store rooted at root that serializes writes with the lock
// file at lockPath. An empty lockPath disables cross-process locking.
func New(root, lockPath string, logger *slog.Logger) *Store {
	s := &Store{
		root:   filepath.Clean(root),
		logger: logging.NewComponentLogger(logger, "vault"),
	}
	if lockPath != "" {
		s.lock = flock.New(lockPath)
	}
	return s
}

// NewFromConfig builds a store for the configured vault.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Store {
	return New(cfg.Paths.VaultDir, cfg.VaultLockPath(), logger)
}

// Root returns the vault directory.
func (s *Store) Root() string {
	return s.root
}

// List returns every note in the vault sorted by relative path. Hidden
// directories are skipped.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("stat vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault %q is not a directory", s.root)
	}

	var docs []Document
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isNote(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		docs = append(docs, Document{Path: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelPath < docs[j].RelPath })
	return docs, nil
}

// Update runs mutate against the note's frontmatter and writes the note back
// atomically when the frontmatter changed. Notes without frontmatter are
// handed an empty block and never written.
func (s *Store) Update(ctx context.Context, doc Document, mutate func(rewrite.Block)) error {
	if !isNote(doc.Path) {
		return fmt.Errorf("%w: %s", ErrNotMarkdown, doc.Path)
	}
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("read note: %w", err)
	}
	n, err := splitNote(data)
	if err != nil {
		return fmt.Errorf("%s: %w", doc.RelPath, err)
	}

	mutate(n.fm)
	if !n.present || !n.fm.Changed() {
		return nil
	}

	out, err := n.bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", doc.RelPath, err)
	}
	if err := fileutil.WriteFileAtomic(doc.Path, out, 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	s.logger.Debug("note updated", logging.Document(doc.RelPath))
	return nil
}

// Inspect decodes a note's frontmatter without holding the write lock. It is
// used for dry runs.
func (s *Store) Inspect(_ context.Context, doc Document) (rewrite.MapBlock, error) {
	if !isNote(doc.Path) {
		return nil, fmt.Errorf("%w: %s", ErrNotMarkdown, doc.Path)
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read note: %w", err)
	}
	n, err := splitNote(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.RelPath, err)
	}
	block := rewrite.MapBlock{}
	content := n.fm.mapping.Content
	for i := 0; i+1 < len(content); i += 2 {
		key := content[i].Value
		if value, ok := n.fm.Get(key); ok {
			block[key] = value
		}
	}
	return block, nil
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire vault lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire vault lock: lock held elsewhere")
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release vault lock", logging.Error(err))
		}
	}, nil
}

func isNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), noteExtension)
}
