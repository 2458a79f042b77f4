package convert

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GenerateInstructions renders human-readable Open Web UI setup steps for a
// converted configuration, including any notes from the conversion.
func GenerateInstructions(out *Output, baseURL string, notes []Note) string {
	var b strings.Builder

	b.WriteString("🚀 Setup Instructions for Open Web UI\n")
	b.WriteString(strings.Repeat("=", 45) + "\n\n")

	configJSON, _ := json.MarshalIndent(out, "", "  ")

	b.WriteString("1. Start MCPO with this configuration:\n")
	b.WriteString("```bash\n")
	b.WriteString("# Save the config to a file\n")
	b.WriteString("cat > mcp-config.json << 'EOF'\n")
	b.Write(configJSON)
	b.WriteString("\nEOF\n\n")
	b.WriteString("# Start MCPO\n")
	b.WriteString("uvx mcpo --port 8000 --api-key 'your-secure-key' --config mcp-config.json\n")
	b.WriteString("```\n\n")

	names := make([]string, 0, len(out.MCPServers))
	for name := range out.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("2. Add tools to Open Web UI:\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "   📊 **%s Tool**:\n", titleCase(name))
		fmt.Fprintf(&b, "   - Name: %s\n", titleCase(name))
		fmt.Fprintf(&b, "   - URL: %s/%s\n", baseURL, name)
		b.WriteString("   - API Key: your-secure-key\n\n")
	}

	b.WriteString("3. Test the setup:\n")
	b.WriteString("```bash\n")
	b.WriteString("# Test connectivity\n")
	fmt.Fprintf(&b, "curl -H 'Authorization: Bearer your-secure-key' %s/docs\n\n", baseURL)
	b.WriteString("# Test specific tools\n")
	for _, name := range names {
		fmt.Fprintf(&b, "curl -H 'Authorization: Bearer your-secure-key' %s/%s\n", baseURL, name)
	}
	b.WriteString("```\n\n")

	var warnings, info []Note
	for _, n := range notes {
		if n.Level == NoteWarning {
			warnings = append(warnings, n)
		} else {
			info = append(info, n)
		}
	}

	if len(warnings) > 0 {
		b.WriteString("⚠️ Warnings:\n")
		for _, n := range warnings {
			fmt.Fprintf(&b, "   - %s\n", n.Message)
		}
		b.WriteByte('\n')
	}
	if len(info) > 0 {
		b.WriteString("ℹ️ Additional Information:\n")
		for _, n := range info {
			fmt.Fprintf(&b, "   - %s\n", n.Message)
		}
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
