// Package jsonselection implements a declarative mapping language for
// reshaping JSON, as used by API connectors to turn upstream responses into
// GraphQL-shaped data.
//
// # About the language
//
// A selection looks like a GraphQL selection set over a JSON document. It
// names the properties to keep, can alias and nest them, and can transform
// values through paths and arrow methods:
//
//	$.data {
//	  id
//	  name: full_name
//	  firstFriend: friends->first.name
//	}
//
// Selections are written against untrusted upstream data, so evaluation
// never fails outright: applying a selection returns the best result it
// could produce together with every problem it encountered along the way.
//
// # About this library
//
// The library splits into four packages:
//
// pkg/selection parses source text into an AST and prints ASTs back to
// canonical source. Every node carries byte offsets into the original
// source so tooling can point at the exact characters a diagnostic is
// about.
//
// pkg/shape is a small structural type system for JSON values. Shapes
// describe sets of possible values, from "any JSON at all" down to a
// single literal, and compose through unions and intersections.
//
// pkg/apply evaluates selections against documents and, independently,
// computes the static output shape of a selection from the shape of its
// input. The same package tracks which variable paths a selection consumes
// so that its inputs can be validated before anything runs.
//
// pkg/selectionset projects a selection onto the fields a GraphQL
// operation actually requests, so connectors fetch and map only what the
// client asked for.
package jsonselection
