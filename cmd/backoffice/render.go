package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dcadvisors/backoffice/internal/email"
	"github.com/dcadvisors/backoffice/internal/render"
)

var (
	renderSubject  string
	renderDataFile string
	renderDataJSON string
)

var renderCmd = &cobra.Command{
	Use:   "render <template-file>",
	Short: "Render a template file against JSON data",
	Long: `Render substitutes the [[razaoSocial]], [[numeroNF]] and [[valorTotal]]
tokens of a template file. Unknown tokens are left in place and listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var renderTokensCmd = &cobra.Command{
	Use:   "tokens <template-file>",
	Short: "List the tokens used by a template file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRenderTokens,
}

func init() {
	renderCmd.Flags().StringVar(&renderSubject, "subject", "", "Subject template (default subject when empty)")
	renderCmd.Flags().StringVar(&renderDataFile, "data-file", "", "JSON file with the notification data")
	renderCmd.Flags().StringVar(&renderDataJSON, "data", "", "Inline JSON with the notification data")

	renderCmd.AddCommand(renderTokensCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	raw := []byte(renderDataJSON)
	if renderDataFile != "" {
		if raw, err = os.ReadFile(renderDataFile); err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
	}

	return renderTemplate(cmd.OutOrStdout(), renderSubject, string(content), raw)
}

// renderTemplate renders content against the JSON data and writes the
// subject, the body and any unresolved tokens to w
func renderTemplate(w io.Writer, subject, content string, rawData []byte) error {
	var data email.Data
	if len(strings.TrimSpace(string(rawData))) > 0 {
		if err := json.Unmarshal(rawData, &data); err != nil {
			return fmt.Errorf("invalid data JSON: %w", err)
		}
	}

	res := render.RenderEmail(subject, content, data)

	fmt.Fprintf(w, "Subject: %s\n\n%s\n", res.Subject, res.Body)

	unknown := render.UnknownTokens(subject + "\n" + content)
	if len(unknown) > 0 {
		fmt.Fprintf(w, "\nUnresolved tokens: %s\n", strings.Join(unknown, ", "))
	}
	return nil
}

func runRenderTokens(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	return listTokens(cmd.OutOrStdout(), string(content))
}

func listTokens(w io.Writer, content string) error {
	tokens := render.Tokens(content)
	if len(tokens) == 0 {
		fmt.Fprintln(w, "No tokens found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tKNOWN")
	for _, name := range tokens {
		fmt.Fprintf(tw, "[[%s]]\t%t\n", name, render.IsKnown(name))
	}
	return tw.Flush()
}
