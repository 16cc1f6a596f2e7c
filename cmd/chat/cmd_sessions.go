package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sessionsCmd, historyCmd, newSessionCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your dialogues, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		sessions, err := client.ListSessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No dialogues yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UUID\tTITLE\tUPDATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.UUID, s.Title, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <uuid>",
	Short: "Print the transcript of a dialogue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		entries, err := client.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println(dimStyle.Render("This dialogue is empty."))
			return nil
		}

		view := newTerminalView(os.Stdout, cfg.Client.RenderMarkdown)
		for _, e := range entries {
			fmt.Println(view.entry(toEntry(e)))
		}
		return nil
	},
}

var newSessionCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a dialogue and print its uuid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		var title string
		if len(args) == 1 {
			title = args[0]
		}
		s, err := client.CreateSession(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		fmt.Printf("%s\t%s\n", s.UUID, s.Title)
		return nil
	},
}
