// Package namelist implements flat-file backed operator/ban/whitelist sets:
// case-sensitive path, newline-delimited membership, loaded once at startup
// and read-only thereafter (§5's shared-resource policy already requires
// this of the server's four name-lists; this supplies the concrete,
// file-backed implementation namelist.c provides in the original).
package namelist

import (
	"bufio"
	"os"
	"strings"
)

// List is an immutable, case-insensitive set of names loaded from a
// newline-delimited file. A missing file loads as an empty list rather
// than an error, since not every server configures every list.
type List struct {
	set map[string]struct{}
}

// Load reads path, one entry per line, ignoring blank lines and lines
// starting with '#'. Entries are matched case-insensitively.
func Load(path string) (*List, error) {
	l := &List{set: make(map[string]struct{})}
	if path == "" {
		return l, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l.set[strings.ToLower(line)] = struct{}{}
	}
	return l, scanner.Err()
}

// Contains reports whether name is a member, case-insensitively.
func (l *List) Contains(name string) bool {
	if l == nil {
		return false
	}
	_, ok := l.set[strings.ToLower(name)]
	return ok
}

// Len reports how many entries are loaded.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.set)
}
