// Package migrations embeds and applies the ledger schema for each backend.
package migrations

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// migration is one embedded SQL file.
type migration struct {
	name string
	sql  string
}

// load returns the non-empty .sql files under dir in lexical order.
func load(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, migration{name: name, sql: string(data)})
	}
	return out, nil
}

// splitStatements splits a script on semicolons for drivers without
// multi-statement Exec (ClickHouse native, MySQL without multiStatements).
// Lines starting with "--" are dropped. Semicolons inside string literals
// are rejected by validateNoSemicolonInStrings before splitting.
func splitStatements(input string) []string {
	var kept []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects scripts with ';' inside a quoted literal.
func validateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("semicolon inside string literal at offset %d", i)
			}
		}
	}
	return nil
}

// statements loads, validates and splits every migration in dir.
func statements(fsys fs.FS, dir string) (map[string][]string, []string, error) {
	migs, err := load(fsys, dir)
	if err != nil {
		return nil, nil, err
	}
	byFile := make(map[string][]string, len(migs))
	order := make([]string, 0, len(migs))
	for _, m := range migs {
		if err := validateNoSemicolonInStrings(m.sql); err != nil {
			return nil, nil, fmt.Errorf("validate migration %s: %w", m.name, err)
		}
		byFile[m.name] = splitStatements(m.sql)
		order = append(order, m.name)
	}
	return byFile, order, nil
}
