// Package errors provides coded, actionable errors for navhist.
//
// Every error has a code (e.g. "E060") registered with a category, a
// short message, a longer explanation and a documentation URL. Call sites
// add what they know:
//
//	err := errors.New("E060").
//	    Wrap(cause).
//	    WithSuggestion("Check that the tab loaded /_navhist/client.js")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E060: WebSocket connection failed
//	//
//	//   The browser tab's navigation channel could not be opened or was lost.
//	//
//	//   Hint: Check that the tab loaded /_navhist/client.js
//	//
//	//   Learn more: https://navhist.dev/docs/errors/E060
//
// # Error Categories
//
//   - runtime: misuse detected while the program runs
//   - protocol: navigation channel and frame errors
//   - config: navhist.json problems
//   - cli: command-line usage errors
package errors
