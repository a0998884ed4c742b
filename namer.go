package facegrab

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// defaultNamer is shared by every Config that does not bring its own, so
// concurrent runs in one process never receive the same directory.
var defaultNamer = NewOutputNamer()

// NormalizeQuery lowercases q and replaces spaces and path separators with
// underscores. The result is used for both directory and file names.
func NormalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(q)
}

// OutputNamer hands out fresh output directories. It is safe for concurrent use.
type OutputNamer struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewOutputNamer returns a namer with an empty reservation set.
func NewOutputNamer() *OutputNamer {
	return &OutputNamer{reserved: make(map[string]struct{})}
}

// Create makes a new directory under root named after query and returns its
// path. The first free name in the sequence base, base_1, base_2, ... is
// used; names handed out earlier by this namer are skipped even if they were
// removed from disk since.
func (n *OutputNamer) Create(root, query string) (string, error) {
	base := NormalizeQuery(query)
	if base == "" {
		return "", ErrEmptyQuery
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", &StorageError{Path: root, Err: err}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = base + "_" + strconv.Itoa(i)
		}
		path := filepath.Join(root, name)
		if _, taken := n.reserved[path]; taken {
			continue
		}

		// Mkdir is atomic, so another process creating the same name
		// between our check and create just moves us to the next suffix.
		err := os.Mkdir(path, 0o755)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &StorageError{Path: path, Err: err}
		}

		n.reserved[path] = struct{}{}
		return path, nil
	}
}

// imageFileName builds "{normalized}_{index}.{ext}".
func imageFileName(query string, index int, ext string) string {
	return NormalizeQuery(query) + "_" + strconv.Itoa(index) + "." + ext
}
