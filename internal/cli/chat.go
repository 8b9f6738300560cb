package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/spf13/cobra"
)

func (a *App) chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to customers and craftsmen",
	}
	cmd.AddCommand(
		a.chatListCmd(),
		a.chatShowCmd(),
		a.chatSendCmd(),
		a.chatWatchCmd(),
		a.chatStartCmd(),
		a.chatSuggestCmd(),
	)
	return cmd
}

// openConversation enters the chat page and makes id the active
// conversation.
func (a *App) openConversation(ctx context.Context, arg string) (int64, error) {
	id, err := parseID(arg)
	if err != nil {
		return 0, err
	}
	if err := a.enter(router.Chat, nil); err != nil {
		return 0, err
	}
	if err := a.chat.SelectConversation(ctx, id); err != nil {
		return 0, fmt.Errorf("open conversation %d: %w", id, err)
	}
	return id, nil
}

func (a *App) chatListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Chat, nil); err != nil {
				return err
			}
			if err := a.chat.RefreshConversations(cmd.Context()); err != nil {
				return fmt.Errorf("list conversations: %w", err)
			}
			printConversations(a.out, a.chat.Snapshot().Conversations)
			return nil
		},
	}
}

func (a *App) chatShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.chat.Stop()
			active := a.chat.Snapshot().Active
			printConversationHeader(a.out, active)
			printMessages(a.out, active.Messages)
			return nil
		},
	}
}

func (a *App) chatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <message...>",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer a.chat.Stop()
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return nil
			}
			if err := a.chat.SendMessage(cmd.Context(), text); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
			msgs := a.chat.Snapshot().Active.Messages
			printMessage(a.out, msgs[len(msgs)-1])
			return nil
		},
	}
}

func (a *App) chatWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <conversation-id>",
		Short: "Follow a conversation until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := a.openConversation(ctx, args[0])
			if err != nil {
				return err
			}
			defer a.chat.Stop()

			active := a.chat.Snapshot().Active
			printConversationHeader(a.out, active)
			printMessages(a.out, active.Messages)
			printed := len(active.Messages)

			check := time.NewTicker(a.opts.PollInterval)
			defer check.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-a.chat.Updates():
					active := a.chat.Snapshot().Active
					if active == nil || active.ID != id {
						return nil
					}
					if len(active.Messages) > printed {
						printMessages(a.out, active.Messages[printed:])
						printed = len(active.Messages)
					}
				case <-check.C:
					if !a.chat.IsSyncing() {
						if err := a.chat.Snapshot().LastError; err != nil {
							return fmt.Errorf("conversation sync stopped: %w", err)
						}
						return nil
					}
				}
			}
		},
	}
}

func (a *App) chatStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <service-id> <message...>",
		Short: "Contact the craftsman of a service",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.Chat, nil); err != nil {
				return err
			}
			id, err := a.chat.StartConversation(cmd.Context(), serviceID, strings.Join(args[1:], " "))
			a.chat.Stop()
			if err != nil {
				return fmt.Errorf("start conversation: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Conversation #%d started.", id))
			return nil
		},
	}
}

func (a *App) chatSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <conversation-id>",
		Short: "Propose a reply to the last message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer a.chat.Stop()
			suggestion, err := a.chat.SuggestReply(cmd.Context())
			if err != nil {
				return fmt.Errorf("suggest reply: %w", err)
			}
			fmt.Fprintln(a.out, suggestion)
			return nil
		},
	}
}

func (a *App) offersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Make and answer price offers",
	}

	var price, description string
	makeCmd := &cobra.Command{
		Use:   "make <conversation-id>",
		Short: "Offer a price in a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openConversation(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer a.chat.Stop()
			offer, err := a.chat.MakeOffer(cmd.Context(), price, description)
			if err != nil {
				return fmt.Errorf("make offer: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Offer #%d sent.", offer.ID))
			return nil
		},
	}
	makeCmd.Flags().StringVar(&price, "price", "", "offered price")
	makeCmd.Flags().StringVar(&description, "description", "", "what the price covers")
	_ = makeCmd.MarkFlagRequired("price")

	cmd.AddCommand(makeCmd,
		a.offerDecisionCmd("accept", "Accept an offer and book the service", true),
		a.offerDecisionCmd("reject", "Decline an offer", false),
	)
	return cmd
}

func (a *App) offerDecisionCmd(use, short string, accept bool) *cobra.Command {
	var conversation string
	cmd := &cobra.Command{
		Use:   use + " <offer-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if conversation != "" {
				if _, err := a.openConversation(cmd.Context(), conversation); err != nil {
					return err
				}
				defer a.chat.Stop()
			} else if err := a.enter(router.Chat, nil); err != nil {
				return err
			}

			decide := a.chat.RejectOffer
			if accept {
				decide = a.chat.AcceptOffer
			}
			offer, err := decide(cmd.Context(), offerID)
			if err != nil && offer == nil {
				return fmt.Errorf("%s offer: %w", use, err)
			}
			if err != nil {
				a.toasts.Warning("Could not refresh the conversation.")
			}
			a.toasts.Success(fmt.Sprintf("Offer #%d %s.", offer.ID, strings.ToLower(string(offer.Status))))
			return nil
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation to refresh after the decision")
	return cmd
}
