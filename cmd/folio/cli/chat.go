package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the site assistant",
		Long: `Send one message to the site assistant, or start an interactive session
when no message is given. Type 'exit' or press Ctrl-D to leave.`,
		Example: `  folio chat "what are your skills?"
  folio chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}

			if len(args) > 0 {
				reply, err := api.Chat(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Println(reply.Response)
				return nil
			}

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("you> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				reply, err := api.Chat(cmd.Context(), line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Printf("bot> %s\n", reply.Response)
			}
		},
	}
}
