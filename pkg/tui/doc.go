// Package tui is the terminal front end for the car collection.
//
// A Model shows one page of the current snapshot in a table and opens a
// modal form for add and edit. Store calls run as tea.Cmds, so the screen
// keeps rendering while a request is in flight. Outcomes published by the
// store show up as alerts that must be dismissed before anything else.
//
//	rec := &collection.Recorder{}
//	store := collection.New(client, collection.WithNotifier(rec))
//	m := tui.New(store, form.NewController(store), tui.WithNotices(rec))
//	err := tui.Run(ctx, m)
package tui
