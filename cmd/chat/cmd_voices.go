package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Rrens/shaman-chat/internal/speech"
)

func init() {
	rootCmd.AddCommand(voicesCmd)
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List speech voices for the configured language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Client.Speech
		engine := speech.NewCommandEngine(sc)

		voices, err := engine.Voices(cmd.Context())
		if err != nil {
			return err
		}
		selected, _ := speech.SelectVoice(voices, sc.Lang)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LANGUAGE\tGENDER\tNAME\t")
		for _, v := range voices {
			mark := ""
			if v.Name == selected.Name {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Language, v.Gender, v.Name, mark)
		}
		return w.Flush()
	},
}
