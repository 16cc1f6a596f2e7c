package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/Rrens/shaman-chat/internal/chat"
)

var (
	askSession string
	askFile    string
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "send to this dialogue instead of a one-shot prompt")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "attach a file (requires --session)")
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a single prompt and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		view := newTerminalView(os.Stdout, cfg.Client.RenderMarkdown)
		controller := chat.NewController(client, quietView{view}, attachment.NewStager(), nil)
		prompt := strings.Join(args, " ")

		if askSession == "" {
			if askFile != "" {
				return fmt.Errorf("--file needs --session")
			}
			reply, err := controller.Ask(ctx, prompt)
			if err != nil {
				return err
			}
			fmt.Println(view.markdown(reply))
			return nil
		}

		if err := controller.SelectSession(ctx, askSession); err != nil {
			return err
		}
		if askFile != "" {
			category, err := attachCategory([]string{askFile})
			if err != nil {
				return err
			}
			if err := controller.Attach(askFile, category); err != nil {
				return err
			}
		}
		reply, err := controller.Send(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Println(view.markdown(reply.Response))
		if reply.AttachmentURL != "" {
			fmt.Println(dimStyle.Render("file: " + reply.AttachmentURL))
		}
		return nil
	},
}

// quietView drops transcript output so one-shot commands print only the reply
type quietView struct {
	*terminalView
}

func (quietView) SetBusy(bool)                 {}
func (quietView) SetTranscript([]chat.Entry)   {}
func (quietView) AppendEntry(chat.Entry)       {}
func (quietView) ShowNotice(string)            {}
func (quietView) SetTitle(string)              {}
func (quietView) ShowAttachmentURL(url string) {}
