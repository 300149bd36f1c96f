package compose

import (
	"bufio"
	"errors"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// envBlankRegex matches blank lines and comment lines.
var envBlankRegex = regexp.MustCompile(`^\s*(#.*)?$`)

// envVarRegex matches KEY=value lines. Lowercase names are allowed even
// though POSIX does not require them.
// Groups:
//   - Group 1: Variable name
//   - Group 2: Value, verbatim
var envVarRegex = regexp.MustCompile(`^([_A-Za-z][_A-Za-z0-9]*)=(.*)$`)

// EnvFile is a file referenced by env_file:. Values are taken verbatim; like
// Docker, no shell quoting or escaping is applied, so WEIRD="quoted" keeps
// its quote characters.
type EnvFile struct {
	vars map[string]string
}

// ReadEnvFile parses KEY=value lines from r. Blank and comment lines are
// skipped, later assignments override earlier ones and any other line is a
// *ParseError.
func ReadEnvFile(r io.Reader) (*EnvFile, error) {
	vars := make(map[string]string)
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		// lines may be of any length
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if line != "" {
			if perr := readEnvLine(vars, line, lineNo); perr != nil {
				return nil, perr
			}
		}
		if err != nil {
			break
		}
	}
	return &EnvFile{vars: vars}, nil
}

func readEnvLine(vars map[string]string, line string, lineNo int) error {
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	if envBlankRegex.MatchString(line) {
		return nil
	}

	m := envVarRegex.FindStringSubmatch(line)
	if m == nil {
		return &ParseError{
			Kind:  "env file line",
			Input: line,
			Line:  lineNo,
			Err:   ErrInvalidValue,
		}
	}
	vars[m[1]] = m[2]
	return nil
}

// LoadEnvFile reads an env file from disk. Failures are *IOError values
// carrying the path; a parse failure keeps the *ParseError beneath it.
func LoadEnvFile(path string) (*EnvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	env, err := ReadEnvFile(f)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, &IOError{Op: "parse", Path: path, Err: err}
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return env, nil
}

// Vars returns a copy of the variables.
func (e *EnvFile) Vars() map[string]string {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Get returns the value of key.
func (e *EnvFile) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Keys returns the variable names in sorted order.
func (e *EnvFile) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of variables.
func (e *EnvFile) Len() int {
	return len(e.vars)
}

// Lookup returns a Lookup over the file's variables.
func (e *EnvFile) Lookup() Lookup {
	return MapLookup(e.vars)
}

// Environment converts the file into a service environment. Values are taken
// literally; env files are not interpolated.
func (e *EnvFile) Environment() VarMap {
	env := make(VarMap, len(e.vars))
	for k, v := range e.vars {
		val := Value(v)
		env[k] = &val
	}
	return env
}
