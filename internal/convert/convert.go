// Package convert rewrites standard MCP server configurations into the
// normalized form the MCPO gateway consumes: shell wrappers unwrapped,
// server names sanitized into route-safe identifiers, disabled servers
// dropped.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMissingServers = errors.New("invalid MCP configuration: missing 'mcpServers' key")
	ErrNoConfigFound  = errors.New("no MCP configuration found in README")
	ErrNoValidConfig  = errors.New("no valid MCP configuration JSON found")
)

type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
)

// Note is a non-fatal observation produced while converting. Notes are
// returned to the caller instead of being accumulated on shared state so
// conversions stay independent.
type Note struct {
	Level   NoteLevel
	Message string
}

func infoNote(format string, args ...any) Note {
	return Note{Level: NoteInfo, Message: fmt.Sprintf(format, args...)}
}

func warningNote(format string, args ...any) Note {
	return Note{Level: NoteWarning, Message: fmt.Sprintf(format, args...)}
}

// ServerConfig is one entry of the incoming mcpServers mapping.
type ServerConfig struct {
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	AutoApprove json.RawMessage   `json:"autoApprove,omitempty"`
}

type Input struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// Server is a normalized MCPO server entry.
type Server struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

type Output struct {
	MCPServers map[string]Server `json:"mcpServers"`
}

// Convert parses a standard MCP configuration document and converts it.
func Convert(raw []byte) (*Output, []Note, error) {
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return ConvertConfig(in)
}

// ConvertConfig converts an already parsed configuration.
func ConvertConfig(in Input) (*Output, []Note, error) {
	if in.MCPServers == nil {
		return nil, nil, ErrMissingServers
	}

	out := &Output{MCPServers: map[string]Server{}}
	var notes []Note

	for name, sc := range in.MCPServers {
		server, serverNotes := convertServer(name, sc)
		notes = append(notes, serverNotes...)
		if server == nil {
			continue
		}
		out.MCPServers[CleanServerName(name)] = *server
	}

	return out, notes, nil
}

func convertServer(name string, sc ServerConfig) (*Server, []Note) {
	var notes []Note

	if sc.Disabled {
		return nil, append(notes, infoNote("Skipping disabled server: %s", name))
	}
	if sc.Command == "" {
		return nil, append(notes, warningNote("Server '%s' missing command field", name))
	}

	command := sc.Command
	args := sc.Args

	switch strings.ToLower(command) {
	case "cmd", "cmd.exe":
		command, args = unwrapWindowsCommand(args)
	case "powershell", "pwsh":
		command, args = unwrapPowershellCommand(args)
	}

	if autoApproveSet(sc.AutoApprove) {
		notes = append(notes, infoNote("Server '%s' has autoApprove settings - may need manual approval in Open Web UI", name))
	}

	return &Server{Command: command, Args: args, Env: sc.Env}, notes
}

// unwrapWindowsCommand strips a cmd.exe invocation down to the wrapped
// command.
func unwrapWindowsCommand(args []string) (string, []string) {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "/c", "-c":
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return "cmd", nil
	}
	return args[0], args[1:]
}

// unwrapPowershellCommand extracts the command string behind a -Command
// flag. Anything more elaborate passes through unchanged.
func unwrapPowershellCommand(args []string) (string, []string) {
	if len(args) >= 2 {
		switch strings.ToLower(args[0]) {
		case "-command", "-c":
			parts := strings.Fields(args[1])
			if len(parts) > 0 {
				return parts[0], parts[1:]
			}
		}
	}
	return "powershell", args
}

// autoApproveSet reports whether the autoApprove field carries a non-empty
// value. It may arrive as a bool, a list, or be absent entirely.
func autoApproveSet(raw json.RawMessage) bool {
	switch trimmed := strings.TrimSpace(string(raw)); trimmed {
	case "", "null", "false", "[]", "{}":
		return false
	default:
		return true
	}
}

var (
	knownPrefixes  = regexp.MustCompile(`^(github\.com/|gitlab\.com/|mcp-server-)`)
	invalidChars   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	repeatedScores = regexp.MustCompile(`_+`)
)

// CleanServerName sanitizes a server name for use as an MCPO route: known
// domain prefixes stripped, disallowed characters replaced with
// underscores, underscore runs collapsed, edges trimmed.
func CleanServerName(name string) string {
	name = knownPrefixes.ReplaceAllString(name, "")
	name = invalidChars.ReplaceAllString(name, "_")
	name = repeatedScores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "server"
	}
	return name
}

var fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{[^`]*\"mcpServers\"[^`]*\\})\\s*```")

// FromReadme extracts the first valid MCP configuration from fenced JSON
// blocks in a README-style document and converts it.
func FromReadme(text []byte) (*Output, []Note, error) {
	matches := fencedJSONBlock.FindAllSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil, ErrNoConfigFound
	}

	for _, m := range matches {
		var in Input
		if err := json.Unmarshal(m[1], &in); err != nil {
			continue
		}
		return ConvertConfig(in)
	}

	return nil, nil, ErrNoValidConfig
}
