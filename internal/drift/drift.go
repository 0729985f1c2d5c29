// Package drift fingerprints table definitions with merkle trees. The
// synchronizer records the fingerprint of every table it has reconciled;
// a re-registration with an identical fingerprint skips introspection and
// diffing entirely, which matters when dozens of modules re-declare their
// tables on every reload.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cbergoon/merkletree"

	"github.com/keystone-gg/keystone/internal/schema"
)

// columnContent implements merkletree.Content over one column definition.
type columnContent struct {
	line string
}

func (c columnContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(c.line))
	return h[:], nil
}

func (c columnContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(columnContent)
	if !ok {
		return false, nil
	}
	return c.line == o.line, nil
}

// Fingerprint computes the merkle root of a table definition as a hex
// string. Column order does not affect the result; every structural
// property of every column does.
func Fingerprint(t *schema.Table) (string, error) {
	if t == nil || len(t.Columns) == 0 {
		return emptyFingerprint(), nil
	}

	lines := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		lines = append(lines, columnLine(col))
	}
	sort.Strings(lines)

	contents := make([]merkletree.Content, 0, len(lines))
	for _, line := range lines {
		contents = append(contents, columnContent{line: line})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(tree.MerkleRoot()), nil
}

// columnLine renders every structural property of a column into one
// canonical string.
func columnLine(col schema.Column) string {
	parts := []string{
		"name:" + strings.ToLower(col.Name),
		"type:" + col.TypeString(),
		"notnull:" + strconv.FormatBool(col.NotNull),
		"unique:" + strconv.FormatBool(col.Unique),
		"primary:" + strconv.FormatBool(col.Primary),
		"autoinc:" + strconv.FormatBool(col.AutoIncrement),
	}
	if col.HasDefault {
		parts = append(parts, "default:"+col.Default)
	}
	if col.OnUpdate != "" {
		parts = append(parts, "onupdate:"+col.OnUpdate)
	}
	return strings.Join(parts, "|")
}

func emptyFingerprint() string {
	h := sha256.Sum256([]byte("empty_table"))
	return hex.EncodeToString(h[:])
}

// SchemaRoot computes one merkle root over a whole set of tables, for
// status display and cross-host schema comparison. Table order does not
// affect the result.
func SchemaRoot(tables []*schema.Table) (string, error) {
	if len(tables) == 0 {
		return emptyFingerprint(), nil
	}

	lines := make([]string, 0, len(tables))
	for _, t := range tables {
		fp, err := Fingerprint(t)
		if err != nil {
			return "", err
		}
		lines = append(lines, strings.ToLower(t.Name)+":"+fp)
	}
	sort.Strings(lines)

	contents := make([]merkletree.Content, 0, len(lines))
	for _, line := range lines {
		contents = append(contents, columnContent{line: line})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(tree.MerkleRoot()), nil
}

// Tracker remembers the fingerprint of each table at its last successful
// sync. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]string)}
}

// Changed reports whether the table differs from its last recorded
// fingerprint. Unseen tables and fingerprinting failures read as changed,
// so sync work is never skipped on uncertainty.
func (tr *Tracker) Changed(t *schema.Table) bool {
	fp, err := Fingerprint(t)
	if err != nil {
		return true
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	prev, ok := tr.seen[t.Name]
	return !ok || prev != fp
}

// Record stores the table's current fingerprint after a successful sync.
func (tr *Tracker) Record(t *schema.Table) {
	fp, err := Fingerprint(t)
	if err != nil {
		return
	}

	tr.mu.Lock()
	tr.seen[t.Name] = fp
	tr.mu.Unlock()
}

// Forget drops a table's recorded fingerprint, forcing the next sync to
// run the full reconciliation.
func (tr *Tracker) Forget(name string) {
	tr.mu.Lock()
	delete(tr.seen, name)
	tr.mu.Unlock()
}
