// README: Common identifier and actor types used across modules.
package types

// ID is an opaque order identifier. Order numbers arrive as digit strings
// and are stored verbatim; leading zeros are significant.
type ID string

// Actor is whoever issued a chat command, as reported by the chat transport.
type Actor struct {
	ID   string
	Name string
}
