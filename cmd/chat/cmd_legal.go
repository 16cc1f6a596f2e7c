package main

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(legalCmd)
}

var legalCmd = &cobra.Command{
	Use:       "legal <terms|privacy>",
	Short:     "Show the terms of use or the privacy policy",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"terms", "privacy"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		doc, err := client.Legal(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		fmt.Println(titleStyle.Render(doc.Title))
		fmt.Println(dimStyle.Render("Updated " + doc.UpdateDate))
		fmt.Println()
		fmt.Println(htmlToText(doc.Content))
		return nil
	},
}

var (
	blockTagRe = regexp.MustCompile(`(?i)</?(p|br|li|h[1-6]|div|ul|ol)[^>]*>`)
	blankRe    = regexp.MustCompile(`\n{3,}`)

	stripPolicy = bluemonday.StrictPolicy()
)

// htmlToText turns the legal document markup into readable plain text
func htmlToText(markup string) string {
	text := blockTagRe.ReplaceAllString(markup, "\n")
	text = html.UnescapeString(stripPolicy.Sanitize(text))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
