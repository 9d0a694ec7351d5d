package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/nox-mcp/internal/nox"
	"github.com/teemow/nox-mcp/internal/server"
)

// Documentation output formats.
const (
	docsFormatMarkdown = "markdown"
	docsFormatYAML     = "yaml"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
as markdown or YAML, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile, format)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", docsFormatMarkdown, "Output format: markdown or yaml")

	return cmd
}

func runGenerateDocs(outputFile, format string) error {
	tools, err := registeredTools()
	if err != nil {
		return err
	}

	var out string
	switch format {
	case docsFormatMarkdown:
		out = generateToolsMarkdown(tools)
	case docsFormatYAML:
		out, err = generateToolsYAML(tools)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q (supported: %s, %s)", format, docsFormatMarkdown, docsFormatYAML)
	}

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(out)
	}

	return nil
}

// registeredTools builds a server with every tool registered and returns
// the tool definitions sorted by name. No nox process is started.
func registeredTools() ([]mcp.Tool, error) {
	serverContext := server.NewServerContext(context.Background(), nox.NewClient())
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := registerAll(mcpSrv, serverContext); err != nil {
		return nil, err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools, nil
}

// toolDoc is the YAML form of a tool definition.
type toolDoc struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	ReadOnly    bool          `yaml:"read_only"`
	Arguments   []argumentDoc `yaml:"arguments,omitempty"`
}

type argumentDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
}

func generateToolsYAML(tools []mcp.Tool) (string, error) {
	docs := make([]toolDoc, 0, len(tools))
	for _, tool := range tools {
		doc := toolDoc{
			Name:        tool.Name,
			Description: tool.Description,
			ReadOnly:    tool.Annotations.ReadOnlyHint != nil && *tool.Annotations.ReadOnlyHint,
		}
		for _, name := range sortedPropertyNames(tool) {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}
			desc, _ := propMap["description"].(string)
			doc.Arguments = append(doc.Arguments, argumentDoc{
				Name:        name,
				Type:        getPropertyType(propMap),
				Required:    contains(tool.InputSchema.Required, name),
				Default:     propMap["default"],
				Description: desc,
			})
		}
		docs = append(docs, doc)
	}

	data, err := yaml.Marshal(map[string]any{"tools": docs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool documentation: %w", err)
	}
	return string(data), nil
}

func sortedPropertyNames(tool mcp.Tool) []string {
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running nox-mcp as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Group tools by category
	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	// Error reporting note
	sb.WriteString("## Errors\n\n")
	sb.WriteString("Failures are returned as tool errors with a short message, for example:\n\n")
	sb.WriteString("- `'nox' executable not found in PATH.`\n")
	sb.WriteString("- `Invalid session name: <name>` / `Invalid tag: <tag>`\n")
	sb.WriteString("- `nox --list timed out` / `nox run timed out`\n\n")
	sb.WriteString("A non-zero `exit_code` from `nox_run_session` is a normal result, not an error.\n\n")

	// Generate documentation for each category
	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategoryFromToolName(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 0 {
		return "Other"
	}

	switch parts[0] {
	case "nox":
		return "Nox Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	// Tool name
	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	// Input schema
	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		for _, name := range sortedPropertyNames(tool) {
			prop := tool.InputSchema.Properties[name]
			isRequired := contains(tool.InputSchema.Required, name)

			requiredStr := "optional"
			if isRequired {
				requiredStr = "required"
			}

			// Get property type and description from the property map
			propMap, ok := prop.(map[string]interface{})
			if !ok {
				continue
			}

			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s): ", name, requiredStr))

			// Get description
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}

			if def, ok := propMap["default"]; ok {
				sb.WriteString(fmt.Sprintf(" (default: %v)", def))
			}

			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
