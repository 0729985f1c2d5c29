// Package schemafile loads table definitions from YAML files, for tables
// that are operator-managed rather than declared by game code. A watcher
// re-applies files as they change so schema edits land without a restart.
package schemafile

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/keystone-gg/keystone/internal/kerr"
	"github.com/keystone-gg/keystone/internal/schema"
)

type fileSchema struct {
	Tables map[string]tableDef `yaml:"tables"`
}

type tableDef struct {
	Columns []columnDef `yaml:"columns"`
}

type columnDef struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	Length        int     `yaml:"length"`
	NotNull       bool    `yaml:"not_null"`
	Unique        bool    `yaml:"unique"`
	Primary       bool    `yaml:"primary"`
	AutoIncrement bool    `yaml:"auto_increment"`
	Default       *string `yaml:"default"`
	OnUpdate      string  `yaml:"on_update"`
}

// LoadFile parses one YAML schema file into validated table definitions,
// sorted by table name.
func LoadFile(path string) ([]*schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerr.Wrap(kerr.ErrSchemaNotFound, err, "schema file not found").
				With("path", path)
		}
		return nil, kerr.Wrap(kerr.ErrSchemaInvalid, err, "cannot read schema file").
			With("path", path)
	}

	var parsed fileSchema
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, kerr.Wrap(kerr.ErrSchemaInvalid, err, "malformed schema file").
			With("path", path)
	}

	names := make([]string, 0, len(parsed.Tables))
	for name := range parsed.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t := buildTable(name, parsed.Tables[name])
		if err := t.Validate(); err != nil {
			return nil, kerr.Wrap(kerr.ErrSchemaInvalid, err, "invalid table in schema file").
				With("path", path).
				WithTable(name)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// LoadDir loads every .yaml/.yml file in dir, in sorted filename order. A
// missing directory yields no tables rather than an error, so a fresh
// deployment without a schemas directory just starts empty.
func LoadDir(dir string) ([]*schema.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kerr.Wrap(kerr.ErrSchemaInvalid, err, "cannot read schemas directory").
			With("path", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	var tables []*schema.Table
	for _, f := range files {
		loaded, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		tables = append(tables, loaded...)
	}
	return tables, nil
}

func buildTable(name string, def tableDef) *schema.Table {
	t := &schema.Table{Name: name}
	for _, c := range def.Columns {
		col := schema.Column{
			Name:          c.Name,
			Type:          c.Type,
			Length:        c.Length,
			NotNull:       c.NotNull,
			Unique:        c.Unique,
			Primary:       c.Primary,
			AutoIncrement: c.AutoIncrement,
			OnUpdate:      c.OnUpdate,
		}
		if c.Default != nil {
			col.Default = *c.Default
			col.HasDefault = true
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Watcher re-applies schema files as they are created or rewritten.
type Watcher struct {
	fs  *fsnotify.Watcher
	log *slog.Logger
}

// Watch starts watching dir and calls apply for every table parsed out of
// a created or modified YAML file. Parse errors are logged and skipped;
// one broken file must not stop the watcher.
func Watch(dir string, apply func(*schema.Table), log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, kerr.Wrap(kerr.ErrConfigInvalid, err, "cannot start schema watcher")
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, kerr.Wrap(kerr.ErrConfigInvalid, err, "cannot watch schemas directory").
			With("path", dir)
	}

	w := &Watcher{fs: fs, log: log}
	go w.loop(apply)

	log.Info("watching schemas directory", "path", dir)
	return w, nil
}

func (w *Watcher) loop(apply func(*schema.Table)) {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isYAML(event.Name) {
				continue
			}

			tables, err := LoadFile(event.Name)
			if err != nil {
				w.log.Error("schema file rejected", "path", event.Name, "error", err)
				continue
			}
			for _, t := range tables {
				apply(t)
			}
			w.log.Info("schema file applied", "path", event.Name, "tables", len(tables))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error("schema watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
