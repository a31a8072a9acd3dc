// Package taskio reads and writes task files. Tasks live in a directory as
// task%05d:000.bin (msgpack) or task%05d.json; a few samples are embedded.
package taskio

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/milk9111/physbench/task"
)

var ErrTaskNotFound = errors.New("taskio: task not found")

//go:embed data/*.json
var SamplesFS embed.FS

var taskFileRE = regexp.MustCompile(`^task(\d{5})(?::000\.bin|\.json)$`)

func BinName(id int32) string  { return fmt.Sprintf("task%05d:000.bin", id) }
func JSONName(id int32) string { return fmt.Sprintf("task%05d.json", id) }

// LoadByID looks for the binary file first, then the JSON one. An empty dir
// reads the embedded samples.
func LoadByID(dir string, id int32) (*task.Task, error) {
	if dir == "" {
		return loadFS(SamplesFS, "data/"+JSONName(id))
	}
	for _, name := range []string{BinName(id), JSONName(id)} {
		t, err := LoadPath(filepath.Join(dir, name))
		if errors.Is(err, ErrTaskNotFound) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("%w: id %d in %s", ErrTaskNotFound, id, dir)
}

func LoadPath(path string) (*task.Task, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("taskio: read %s: %w", path, err)
	}
	return decode(path, data)
}

func loadFS(fsys fs.FS, name string) (*task.Task, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("taskio: read %s: %w", name, err)
	}
	return decode(name, data)
}

func decode(name string, data []byte) (*task.Task, error) {
	t := new(task.Task)
	if strings.HasSuffix(name, ".json") {
		if err := json.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("taskio: unmarshal %s: %w", name, err)
		}
		return t, nil
	}
	if _, err := t.UnmarshalMsg(data); err != nil {
		return nil, fmt.Errorf("taskio: decode %s: %w", name, err)
	}
	return t, nil
}

// Save writes JSON for a .json path and msgpack otherwise.
func Save(path string, t *task.Task) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(t, "", "  ")
	} else {
		data, err = t.MarshalMsg(nil)
	}
	if err != nil {
		return fmt.Errorf("taskio: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("taskio: write %s: %w", path, err)
	}
	return nil
}

// ListIDs returns the sorted ids of task files in dir, or of the embedded
// samples when dir is empty. Other files are ignored.
func ListIDs(dir string) ([]int32, error) {
	var (
		entries []fs.DirEntry
		err     error
	)
	if dir == "" {
		entries, err = fs.ReadDir(SamplesFS, "data")
	} else {
		entries, err = os.ReadDir(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("taskio: list %s: %w", dir, err)
	}
	var ids []int32
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := ParseName(e.Name())
		if !ok || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ParseName extracts the id from a task file name.
func ParseName(name string) (int32, bool) {
	m := taskFileRE.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

func IsTaskFile(name string) bool {
	_, ok := ParseName(name)
	return ok
}
