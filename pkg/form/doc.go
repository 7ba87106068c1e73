// Package form holds the add/edit dialog state: one shared draft buffer and
// the Controller state machine that submits it to the collection store.
package form
