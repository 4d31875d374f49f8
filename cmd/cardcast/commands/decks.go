package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fivetwenty-io/cardcast/pkg/cardcast"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

// NewDecksCommand creates the decks command.
func NewDecksCommand() *cobra.Command {
	var opts cardcast.ListOptions

	cmd := &cobra.Command{
		Use:     "decks",
		Aliases: []string{"search"},
		Short:   "Search decks",
		Long:    "Search published CardCast decks by author, category or text",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			list, err := client.ListDecks(cmd.Context(), opts)
			if err != nil {
				return err
			}

			return render(cmd, list, func(w io.Writer) error {
				rows := make([][]string, 0, len(list.Results.Data))
				for _, deck := range list.Results.Data {
					rows = append(rows, []string{
						deck.Code,
						deck.Name,
						deck.Category,
						deck.Author.Username,
						strconv.Itoa(deck.CallCount),
						strconv.Itoa(deck.ResponseCount),
						strconv.FormatFloat(deck.Rating, 'f', 1, 64),
					})
				}

				err := renderTable(w, []string{"Code", "Name", "Category", "Author", "Calls", "Responses", "Rating"}, rows)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(w, "%d of %d decks\n", len(list.Results.Data), list.Results.Count)

				return err
			})
		},
	}

	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of decks to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of decks")
	cmd.Flags().StringVar(&opts.Author, "author", "", "filter by author")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&opts.Search, "search", "", "full-text search")

	return cmd
}

// NewDeckCommand creates the deck command.
func NewDeckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deck PLAYCODE",
		Short: "Get deck details",
		Long:  "Display detailed information about a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			deck, err := client.GetDeck(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, deck, func(w io.Writer) error {
				return renderProperties(w, [][2]string{
					{"Code", deck.Code},
					{"Name", deck.Name},
					{"Description", deck.Description},
					{"Category", deck.Category},
					{"Author", deck.Author.Username},
					{"Calls", strconv.Itoa(deck.CallCount)},
					{"Responses", strconv.Itoa(deck.ResponseCount)},
					{"Rating", strconv.FormatFloat(deck.Rating, 'f', 1, 64)},
					{"Unlisted", strconv.FormatBool(deck.Unlisted)},
					{"Created", deck.CreatedAt.Format(timeLayout)},
					{"Updated", deck.UpdatedAt.Format(timeLayout)},
				})
			})
		},
	}
}

// NewCardsCommand creates the cards command.
func NewCardsCommand() *cobra.Command {
	var calls, responses bool

	cmd := &cobra.Command{
		Use:   "cards PLAYCODE",
		Short: "List the cards of a deck",
		Long:  "List the call and response cards of a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			set := &cardcast.CardSet{}

			switch {
			case calls && !responses:
				set.Calls, err = client.GetCalls(cmd.Context(), args[0])
			case responses && !calls:
				set.Responses, err = client.GetResponses(cmd.Context(), args[0])
			default:
				set, err = client.GetCards(cmd.Context(), args[0])
			}

			if err != nil {
				return err
			}

			return render(cmd, set, func(w io.Writer) error {
				rows := make([][]string, 0, len(set.Calls)+len(set.Responses))
				for _, card := range set.Calls {
					rows = append(rows, []string{"call", card.ID, card.String(), strconv.Itoa(card.Blanks()), strconv.FormatBool(card.NSFW)})
				}

				for _, card := range set.Responses {
					rows = append(rows, []string{"response", card.ID, card.String(), "", strconv.FormatBool(card.NSFW)})
				}

				return renderTable(w, []string{"Type", "ID", "Text", "Blanks", "NSFW"}, rows)
			})
		},
	}

	cmd.Flags().BoolVar(&calls, "calls", false, "only call cards")
	cmd.Flags().BoolVar(&responses, "responses", false, "only response cards")

	return cmd
}
