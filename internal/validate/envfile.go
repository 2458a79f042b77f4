package validate

import (
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var envKeyRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Placeholder secrets that were never changed from an example file.
var weakSecrets = map[string]bool{
	"password": true,
	"changeme": true,
	"123456":   true,
}

// EnvFile validates a dotenv-style file: one KEY=value assignment per line,
// uppercase keys, no obviously weak secrets.
func EnvFile(path string, opts Options) *FileReport {
	opts = opts.withDefaults()
	report := &FileReport{Path: path}

	exists, err := afero.Exists(opts.Fs, path)
	if err != nil || !exists {
		report.Findings = append(report.Findings, errorf("Environment file not found: %s", path))
		return report
	}

	raw, err := afero.ReadFile(opts.Fs, path)
	if err != nil {
		report.Findings = append(report.Findings, errorf("Environment file is not readable: %s", path))
		return report
	}

	for i, line := range strings.Split(string(raw), "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			report.Findings = append(report.Findings, errorf("Line %d: invalid format, expected KEY=value", lineNo))
			continue
		}
		key = strings.TrimSpace(key)

		if !envKeyRe.MatchString(key) {
			report.Findings = append(report.Findings, warningf("Line %d: key '%s' should be UPPER_CASE", lineNo, key))
		}
		if isSecretKey(key) && weakSecrets[strings.ToLower(strings.TrimSpace(value))] {
			report.Findings = append(report.Findings, warningf("Line %d: '%s' appears to use a default or weak value", lineNo, key))
		}
		if strings.Contains(value, " ") && !isQuoted(value) {
			report.Findings = append(report.Findings, warningf("Line %d: value with spaces should be quoted", lineNo))
		}
	}

	return report
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"password", "secret", "key", "token"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isQuoted(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) < 2 {
		return false
	}
	return (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
		(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'"))
}
