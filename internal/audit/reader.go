package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filter controls which audit entries List returns.
type Filter struct {
	Actor  string // optional: filter by actor username
	Action string // optional: filter by action (e.g. login.failure)
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// Default and maximum page sizes for audit queries.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListResult contains paginated audit entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Reader queries the rotated audit files for forensic review.
type Reader struct {
	dir string
}

// NewReader creates a Reader over the given audit directory.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// List returns entries matching the filter, most recent first.
// A missing audit directory yields an empty result, not an error:
// nothing has been audited yet.
func (r *Reader) List(filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	matched, err := r.collect(filter)
	if err != nil {
		return nil, err
	}

	// Files are read oldest-first and lines append chronologically;
	// reverse for newest-first presentation.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]Entry, end-start)
	copy(page, matched[start:end])

	return &ListResult{
		Entries: page,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// collect reads every rotated file in chronological order and returns the
// entries matching the filter.
func (r *Reader) collect(filter Filter) ([]Entry, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit directory: %w", err)
	}

	var files []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		files = append(files, name)
	}
	// Filenames embed the day, so lexical order is chronological order.
	sort.Strings(files)

	var matched []Entry
	for _, name := range files {
		entries, err := readFile(filepath.Join(r.dir, name), filter)
		if err != nil {
			return nil, err
		}
		matched = append(matched, entries...)
	}
	return matched, nil
}

// readFile scans one audit file for matching entries. Unparseable lines are
// skipped: a partially written trailing line must not hide the rest of the
// day's records.
func readFile(path string, filter Filter) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening audit file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Entry
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning audit file %s: %w", path, err)
	}

	return entries, nil
}
