package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDotEnv reads KEY=value pairs from path into the process environment
// and returns the keys it set. Variables already present in the
// environment are left alone, so a deploy's real settings always win over
// a developer's .env.
//
// Accepted syntax: blank lines, "# comment" lines, an optional "export "
// prefix, values wrapped in matching single or double quotes, and a
// trailing " # comment" after unquoted values.
func LoadDotEnv(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var loaded []string
	scanner := bufio.NewScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		key, value, ok, err := parseDotEnvLine(scanner.Text())
		if err != nil {
			return loaded, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return loaded, err
		}
		loaded = append(loaded, key)
	}
	return loaded, scanner.Err()
}

// parseDotEnvLine returns ok=false for lines that carry no assignment.
func parseDotEnvLine(line string) (key, value string, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false, nil
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false, nil
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false, fmt.Errorf("invalid key %q", key)
	}

	value = strings.TrimSpace(value)
	if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') {
		if value[n-1] != value[0] {
			return "", "", false, fmt.Errorf("unterminated quote for %s", key)
		}
		return key, value[1 : n-1], true, nil
	}
	if i := strings.Index(value, " #"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	return key, value, true, nil
}
