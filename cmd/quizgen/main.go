// Command quizgen runs the rule-based quiz pipeline over a text file and
// prints the candidates it keeps. Useful for tuning the rules against real
// notes without starting a server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayakoji/noteshare/plugin/quizgen"
)

var rootCmd = &cobra.Command{
	Use:   "quizgen [file]",
	Short: "Generate quiz candidates from a note body",
	Long: `Reads a note body from the given file, or from stdin when no file is
given, runs the rule pipeline over it and prints the generated quiz items.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readBody(args)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		minScore, _ := cmd.Flags().GetInt("min-score")
		noTF, _ := cmd.Flags().GetBool("no-tf")
		asJSON, _ := cmd.Flags().GetBool("json")

		items := quizgen.Generate(string(body), &quizgen.Options{
			Limit:          limit,
			MinScore:       minScore,
			AllowTrueFalse: !noTF,
		})

		if asJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(items)
		}

		for i, item := range items {
			line := "-"
			if item.SourceLine != nil {
				line = fmt.Sprintf("%d", *item.SourceLine)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] type=%s line=%s\n  Q: %s\n  A: %s\n", i+1, item.Type, line, item.Question, item.Answer)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d items\n", len(items))
		return nil
	},
}

func readBody(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func init() {
	rootCmd.Flags().Int("limit", 20, "maximum number of items")
	rootCmd.Flags().Int("min-score", 3, "minimum candidate score")
	rootCmd.Flags().Bool("no-tf", false, "disable true/false items")
	rootCmd.Flags().Bool("json", false, "print items as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
