// Package sqlsource loads migration definitions from .sql files on
// disk or an embedded filesystem.
//
// Each file is one migration. The filename carries identity:
//
//	v001_create_tables.sql  ->  version "v001", name "create_tables"
//
// Leading comment directives carry the rest of the definition:
//
//	-- phase: 2
//	-- depends_on: create_tables, seed_defaults
//	-- critical
//	-- probe: SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'users')
//
// Directives must appear before the first SQL statement. Unknown
// directives are rejected so typos fail loudly instead of silently
// producing an optional phase-1 migration.
package sqlsource

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	orchestrator "github.com/getpup/migration-orchestrator"
)

var filenameRegex = regexp.MustCompile(`^(v[0-9]+)_([a-z0-9_]+)\.sql$`)

// LoadDir reads every .sql file in dir (non-recursive) and returns the
// parsed definitions sorted by version. Files not matching the
// vNNN_name.sql convention are an error, not a skip.
func LoadDir(fsys fs.FS, dir string) ([]orchestrator.Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	var defs []orchestrator.Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		path := dir + "/" + entry.Name()
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		def, err := Parse(entry.Name(), string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Version < defs[j].Version })

	return defs, nil
}

// Parse builds a definition from a migration filename and file body.
func Parse(filename, body string) (orchestrator.Definition, error) {
	m := filenameRegex.FindStringSubmatch(filename)
	if m == nil {
		return orchestrator.Definition{}, fmt.Errorf("filename %q does not match vNNN_name.sql", filename)
	}

	def := orchestrator.Definition{
		Name:    m[2],
		Version: m[1],
		Phase:   1,
	}

	action := orchestrator.SQLAction{}
	rest, err := parseDirectives(body, &def, &action)
	if err != nil {
		return orchestrator.Definition{}, err
	}

	action.Statements = splitStatements(rest)
	if len(action.Statements) == 0 {
		return orchestrator.Definition{}, fmt.Errorf("no SQL statements")
	}
	def.Action = action

	return def, nil
}

// parseDirectives consumes leading "-- key: value" comments and
// returns the remaining body.
func parseDirectives(body string, def *orchestrator.Definition, action *orchestrator.SQLAction) (string, error) {
	rest := body
	for {
		line, tail, found := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" && found {
			rest = tail
			continue
		}
		if !strings.HasPrefix(trimmed, "--") {
			return rest, nil
		}

		directive := strings.TrimSpace(strings.TrimPrefix(trimmed, "--"))
		key, value, _ := strings.Cut(directive, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "phase":
			phase, err := strconv.Atoi(value)
			if err != nil || phase < 1 {
				return "", fmt.Errorf("invalid phase %q", value)
			}
			def.Phase = phase
		case "depends_on":
			for _, dep := range strings.Split(value, ",") {
				if dep = strings.TrimSpace(dep); dep != "" {
					def.DependsOn = append(def.DependsOn, dep)
				}
			}
		case "critical":
			if value != "" && value != "true" {
				return "", fmt.Errorf("invalid critical value %q", value)
			}
			def.Critical = true
		case "probe":
			if value == "" {
				return "", fmt.Errorf("empty probe query")
			}
			action.ProbeQuery = value
		default:
			// Plain comments are allowed, but only ones that do not
			// look like a directive.
			if !strings.Contains(directive, ":") && key != "critical" {
				rest = tail
				if !found {
					return "", nil
				}
				continue
			}
			return "", fmt.Errorf("unknown directive %q", key)
		}

		if !found {
			return "", nil
		}
		rest = tail
	}
}

// splitStatements splits SQL on top-level semicolons, honoring single
// and double quotes and line comments. Empty statements are dropped.
func splitStatements(body string) []string {
	var (
		statements []string
		current    strings.Builder
		inSingle   bool
		inDouble   bool
		inComment  bool
	)

	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch {
		case inComment:
			if c == '\n' {
				inComment = false
			}
			current.WriteRune(c)
			continue
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
			current.WriteRune(c)
			continue
		case inDouble:
			if c == '"' {
				inDouble = false
			}
			current.WriteRune(c)
			continue
		}

		switch c {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '-':
			if i+1 < len(runes) && runes[i+1] == '-' {
				inComment = true
			}
		case ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
