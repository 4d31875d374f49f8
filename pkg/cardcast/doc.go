// Package cardcast is a client for the CardCast deck API, built on the
// declarative api package.
//
//	client, err := cardcast.New(nil)
//	if err != nil { log.Fatal(err) }
//
//	deck, err := client.GetDeck(ctx, "JJDFG")
//	if err != nil { log.Fatal(err) }
//	fmt.Println(deck.Name, deck.CallCount, deck.ResponseCount)
//
// The chain starters (Decks, Deck, Cards, Calls, Responses) expose the
// underlying request chain for queries the typed helpers do not cover:
//
//	resp, err := client.Decks().Filter("category", "funny").Filter("limit", 10).Index(ctx)
package cardcast
