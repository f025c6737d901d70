package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/redact"
)

func redactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redact [text]",
		Short: "Mask personal data in text",
		Long: `Replace SSNs, card numbers, phone numbers, emails, account and routing
numbers and street addresses with placeholders such as <EMAIL_1>.

The text is taken from the arguments, or from standard input when no
arguments are given.`,
		Example: `  echo "call me at 555-123-4567" | loanbot redact`,
		RunE:    runRedact,
	}

	cmd.Flags().Bool("json", false, "Print the masked text with detection metadata as JSON")

	return cmd
}

func runRedact(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	masked, meta := redact.Mask(text)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		if meta.Categories == nil {
			meta.Categories = []redact.Category{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Masked   string          `json:"masked"`
			Metadata redact.Metadata `json:"metadata"`
		}{masked, meta})
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, masked); err != nil {
		return err
	}
	if meta.Detected() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "masked %d item(s): %s\n",
			meta.MaskCount, strings.Join(meta.CategoryNames(), ", "))
	}
	return nil
}
