// Package repository is the content-addressed filesystem writer (spec
// §6.3). It is grounded on the teacher's internal/storage package
// (Exists/Save/CreateDir), generalized into the fixed layout the
// pipeline's three stages write into and hardened with path
// sanitization and atomic writes per spec §4.5.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type Repository struct {
	root string
}

func New(root string) *Repository {
	return &Repository{root: root}
}

// Exists reports whether name exists under the repository root, used by
// the source fetcher to consult the keccak256 cache before going out to
// the network (spec §4.5).
func (r *Repository) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(r.root, relPath))
	return err == nil
}

// Read reads the file at relPath under the repository root.
func (r *Repository) Read(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.root, relPath))
}

// Write atomically writes data to relPath under the repository root,
// creating parent directories on demand and overwriting any existing
// file (spec §6.3). The write is atomic with respect to concurrent
// readers: data lands in a temp file in the same directory first, then
// is renamed into place, so a reader never observes a partial write.
func (r *Repository) Write(relPath string, data []byte) error {
	full := filepath.Join(r.root, relPath)
	dir := filepath.Dir(full)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, full)
}

// SwarmPath is the repository path for a raw Swarm bzzr1 blob.
func SwarmPath(hexHash string) string {
	return filepath.Join("swarm", "bzzr1", hexHash)
}

// IPFSPath is the repository path for a raw IPFS metadata blob.
func IPFSPath(cid string) string {
	return filepath.Join("ipfs", cid)
}

// MetadataPath is the repository path for a contract's persisted
// metadata document.
func MetadataPath(chain, address string) string {
	return filepath.Join("contract", chain, address, "metadata.json")
}

// SourcePath is the repository path for one fetched compilation source,
// keyed by its sanitized manifest key.
func SourcePath(chain, address, sanitizedKey string) string {
	return filepath.Join("contract", chain, address, "sources", sanitizedKey)
}

// KeccakPath is the repository path consulted as a read-only
// content-addressed cache before fetching a source over the network.
func KeccakPath(hexDigest string) string {
	return filepath.Join("keccak256", hexDigest)
}

var disallowedChar = regexp.MustCompile(`[^A-Za-z0-9_./-]`)
var dotsOnlySegment = regexp.MustCompile(`^\.+$`)

// SanitizeKey defangs a manifest source key for safe use as a
// filesystem path (spec §4.5): characters outside [A-Za-z0-9_./-] become
// "_", and any path segment made up solely of dots collapses to exactly
// one "_" so "../../etc/passwd" cannot escape the repository root
// (becomes "_/_/etc/passwd" — see DESIGN.md's Open Question decisions
// for why a single underscore per segment, not two, is intentional).
// Leading and trailing "/" are preserved as structural separators.
func SanitizeKey(key string) string {
	sanitized := disallowedChar.ReplaceAllString(key, "_")

	segments := strings.Split(sanitized, "/")
	for i, seg := range segments {
		if dotsOnlySegment.MatchString(seg) {
			segments[i] = "_"
		}
	}

	return strings.Join(segments, "/")
}

// Root exposes the configured repository root, primarily for logging.
func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) String() string {
	return fmt.Sprintf("repository(%s)", r.root)
}
