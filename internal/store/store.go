package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/jssift/internal/model"
)

// ErrNoHost is returned when the target has no host to name the directory.
var ErrNoHost = errors.New("target has no host")

const (
	dirPerm  = 0750
	filePerm = 0600
)

// ArtifactStore writes artifacts for one target.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the directory <root>/<target host> and returns
// a store writing into it.
func NewArtifactStore(root string, target model.CrawlTarget) (*ArtifactStore, error) {
	host := hostDir(target.Host())
	if host == "" {
		return nil, ErrNoHost
	}
	if root == "" {
		root = "."
	}

	dir := filepath.Join(root, host)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir returns the directory artifacts are written to.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Path returns the artifact path for ref.
func (s *ArtifactStore) Path(ref model.ScriptReference) string {
	return filepath.Join(s.dir, ref.Identifier()+".txt")
}

// Write stores the findings of res and returns the artifact path.
// Failed results and results without values write nothing and return "".
// Write failures are returned as *model.PersistenceError.
func (s *ArtifactStore) Write(res model.AnalysisResult) (string, error) {
	if res.Failed() || len(res.Strings) == 0 {
		return "", nil
	}

	path := s.Path(res.Ref)
	if err := os.WriteFile(path, []byte(strings.Join(res.Strings, "\n")), filePerm); err != nil {
		return "", &model.PersistenceError{Ref: res.Ref, Path: path, Err: err}
	}
	return path, nil
}

// hostDir makes a host name safe to use as a directory name.
func hostDir(host string) string {
	host = strings.Trim(host, ". ")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, host)
}
