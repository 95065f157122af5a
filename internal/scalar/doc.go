// Package scalar stores low-volume key/value state in the "general"
// namespace. Keys are arbitrary strings prefixed into the namespace; a put
// overwrites any previous value.
package scalar
