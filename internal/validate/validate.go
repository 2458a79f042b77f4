// Package validate checks MCPO configuration files for structural problems
// that would prevent the gateway from starting: malformed JSON, bad server
// names, wrong field types, and dangling environment-variable references.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one categorized observation about a configuration file.
// Validation steps return findings to the caller rather than appending to
// shared state, so independent validations never interfere.
type Finding struct {
	Severity Severity
	Message  string
}

func errorf(format string, args ...any) Finding {
	return Finding{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

func warningf(format string, args ...any) Finding {
	return Finding{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Options carries the environment seams so validations stay deterministic
// under test.
type Options struct {
	Fs        afero.Fs
	LookupEnv func(string) (string, bool)
	LookPath  func(string) (string, error)
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	return o
}

// FileReport is the validation outcome for one configuration file.
type FileReport struct {
	Path     string
	Findings []Finding
}

// Valid reports whether the file can be used: warnings and info don't
// block, errors do.
func (r *FileReport) Valid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *FileReport) bySeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// Render produces the human-readable validation report.
func (r *FileReport) Render() string {
	var b strings.Builder

	sections := []struct {
		header   string
		findings []Finding
	}{
		{"❌ ERRORS:", r.bySeverity(SeverityError)},
		{"⚠️  WARNINGS:", r.bySeverity(SeverityWarning)},
		{"ℹ️  INFO:", r.bySeverity(SeverityInfo)},
	}
	for _, s := range sections {
		if len(s.findings) == 0 {
			continue
		}
		b.WriteString(s.header + "\n")
		for _, f := range s.findings {
			fmt.Fprintf(&b, "   • %s\n", f.Message)
		}
		b.WriteByte('\n')
	}

	errCount := len(r.bySeverity(SeverityError))
	warnCount := len(r.bySeverity(SeverityWarning))
	switch {
	case errCount == 0 && warnCount == 0:
		b.WriteString("✅ Configuration is valid!")
	case errCount == 0:
		b.WriteString("✅ Configuration is valid (with warnings)")
	default:
		b.WriteString("❌ Configuration has errors and cannot be used")
	}

	return b.String()
}

// File validates a single MCPO configuration file.
func File(path string, opts Options) *FileReport {
	opts = opts.withDefaults()
	report := &FileReport{Path: path}

	exists, err := afero.Exists(opts.Fs, path)
	if err != nil || !exists {
		report.Findings = append(report.Findings, errorf("Configuration file not found: %s", path))
		return report
	}

	raw, err := afero.ReadFile(opts.Fs, path)
	if err != nil {
		report.Findings = append(report.Findings, errorf("Configuration file is not readable: %s", path))
		return report
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		report.Findings = append(report.Findings, errorf("Invalid JSON syntax: %v", err))
		return report
	}

	report.Findings = append(report.Findings, validateStructure(doc)...)

	if rawServers, ok := doc["mcpServers"]; ok {
		var servers map[string]json.RawMessage
		if err := json.Unmarshal(rawServers, &servers); err == nil {
			names := make([]string, 0, len(servers))
			for name := range servers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				report.Findings = append(report.Findings, validateServerName(name)...)
				report.Findings = append(report.Findings, validateServer(name, servers[name], opts)...)
			}
		}
	}

	return report
}

// Directory validates every *.json file in a directory.
func Directory(dir string, opts Options) ([]*FileReport, error) {
	opts = opts.withDefaults()

	exists, err := afero.DirExists(opts.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check config directory: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("config directory not found: %s", dir)
	}

	matches, err := afero.Glob(opts.Fs, filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	sort.Strings(matches)

	reports := make([]*FileReport, 0, len(matches))
	for _, path := range matches {
		reports = append(reports, File(path, opts))
	}
	return reports, nil
}

func validateStructure(doc map[string]json.RawMessage) []Finding {
	rawServers, ok := doc["mcpServers"]
	if !ok {
		return []Finding{errorf("Missing required 'mcpServers' key")}
	}

	var findings []Finding

	var servers map[string]json.RawMessage
	if err := json.Unmarshal(rawServers, &servers); err != nil {
		return []Finding{errorf("'mcpServers' must be an object")}
	}
	if len(servers) == 0 {
		findings = append(findings, warningf("No servers defined in 'mcpServers'"))
	}

	if unknown := unknownKeys(doc, []string{"mcpServers"}); len(unknown) > 0 {
		findings = append(findings, warningf("Unknown top-level keys: %s", strings.Join(unknown, ", ")))
	}

	return findings
}

var (
	validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// Routes the gateway claims for itself.
	reservedNames = map[string]bool{
		"docs":         true,
		"openapi.json": true,
		"health":       true,
		"metrics":      true,
	}
)

const maxNameLength = 50

func validateServerName(name string) []Finding {
	var findings []Finding
	if !validNameRe.MatchString(name) {
		findings = append(findings, errorf("Server name '%s' contains invalid characters. Use only letters, numbers, underscore, and hyphen", name))
	}
	if len(name) > maxNameLength {
		findings = append(findings, warningf("Server name '%s' is very long (%d chars)", name, len(name)))
	}
	if reservedNames[strings.ToLower(name)] {
		findings = append(findings, warningf("Server name '%s' conflicts with reserved endpoint", name))
	}
	return findings
}

func validateServer(name string, raw json.RawMessage, opts Options) []Finding {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []Finding{errorf("Server '%s' configuration must be an object", name)}
	}

	if _, ok := fields["type"]; ok {
		return validateExternalServer(name, fields, opts)
	}
	return validateCommandServer(name, fields, opts)
}

func validateCommandServer(name string, fields map[string]json.RawMessage, opts Options) []Finding {
	var findings []Finding

	rawCommand, ok := fields["command"]
	if !ok {
		return append(findings, errorf("Server '%s' missing required 'command' field", name))
	}
	var command string
	if err := json.Unmarshal(rawCommand, &command); err != nil {
		return append(findings, errorf("Server '%s' 'command' must be a string", name))
	}
	if _, err := opts.LookPath(command); err != nil {
		findings = append(findings, warningf("Server '%s' command '%s' not found in PATH", name, command))
	}

	if rawArgs, ok := fields["args"]; ok {
		var args []json.RawMessage
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			findings = append(findings, errorf("Server '%s' 'args' must be an array", name))
		} else {
			for i, arg := range args {
				var s string
				if err := json.Unmarshal(arg, &s); err != nil {
					findings = append(findings, errorf("Server '%s' args[%d] must be a string", name, i))
				}
			}
		}
	}

	if rawEnv, ok := fields["env"]; ok {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(rawEnv, &env); err != nil {
			findings = append(findings, errorf("Server '%s' 'env' must be an object", name))
		} else {
			keys := sortedKeys(env)
			for _, key := range keys {
				var s string
				if err := json.Unmarshal(env[key], &s); err != nil {
					findings = append(findings, errorf("Server '%s' env['%s'] must be string", name, key))
				}
			}
		}
	}

	if unknown := unknownKeys(fields, []string{"command", "args", "env"}); len(unknown) > 0 {
		findings = append(findings, warningf("Server '%s' has unknown fields: %s", name, strings.Join(unknown, ", ")))
	}

	return findings
}

var (
	validTypes    = []string{"sse", "streamable_http"}
	urlSchemeRe   = regexp.MustCompile(`^https?://`)
	placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)
)

func validateExternalServer(name string, fields map[string]json.RawMessage, opts Options) []Finding {
	var findings []Finding

	var serverType string
	_ = json.Unmarshal(fields["type"], &serverType)
	if !contains(validTypes, serverType) {
		findings = append(findings, errorf("Server '%s' has invalid type '%s'. Must be one of: %s", name, serverType, strings.Join(validTypes, ", ")))
	}

	rawURL, ok := fields["url"]
	if !ok {
		findings = append(findings, errorf("Server '%s' missing required 'url' field", name))
	} else {
		var u string
		if err := json.Unmarshal(rawURL, &u); err != nil {
			findings = append(findings, errorf("Server '%s' 'url' must be a string", name))
		} else {
			if !urlSchemeRe.MatchString(u) {
				findings = append(findings, warningf("Server '%s' URL should start with http:// or https://", name))
			}
			findings = append(findings, checkPlaceholders(u, opts, "Server '%s' URL references undefined environment variable: %s", name)...)
		}
	}

	if rawHeaders, ok := fields["headers"]; ok {
		var headers map[string]json.RawMessage
		if err := json.Unmarshal(rawHeaders, &headers); err != nil {
			findings = append(findings, errorf("Server '%s' 'headers' must be an object", name))
		} else {
			for _, header := range sortedKeys(headers) {
				var value string
				if err := json.Unmarshal(headers[header], &value); err != nil {
					findings = append(findings, errorf("Server '%s' header['%s'] must be string", name, header))
					continue
				}
				for _, v := range placeholderRe.FindAllStringSubmatch(value, -1) {
					if _, defined := opts.LookupEnv(v[1]); !defined {
						findings = append(findings, warningf("Server '%s' header '%s' references undefined environment variable: %s", name, header, v[1]))
					}
				}
			}
		}
	}

	if unknown := unknownKeys(fields, []string{"type", "url", "headers"}); len(unknown) > 0 {
		findings = append(findings, warningf("Server '%s' has unknown fields: %s", name, strings.Join(unknown, ", ")))
	}

	return findings
}

// checkPlaceholders warns about ${VAR} references whose variable is not
// defined in the environment.
func checkPlaceholders(value string, opts Options, format, name string) []Finding {
	var findings []Finding
	for _, m := range placeholderRe.FindAllStringSubmatch(value, -1) {
		if _, defined := opts.LookupEnv(m[1]); !defined && format != "" {
			findings = append(findings, warningf(format, name, m[1]))
		}
	}
	return findings
}

func unknownKeys(fields map[string]json.RawMessage, known []string) []string {
	var unknown []string
	for key := range fields {
		if !contains(known, key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
