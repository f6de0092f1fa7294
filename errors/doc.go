// Package errors defines the error taxonomy of the resource SDK.
//
// Every failure that reaches a caller is an *Error carrying a machine-readable
// Code and a human-readable Message. Server-observable failures (transport,
// protocol, parse, classification, duplicate) are delivered through the
// operation's future; precondition failures complete the future without a
// network call; misuse is returned at the call site.
package errors
