// Package io exports resolved dependency graphs as JSON.
//
// # JSON Format
//
// The format has two top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": "a/x", "kind": "main"},
//	    {"id": "b/y", "kind": "dependency"}
//	  ],
//	  "edges": [
//	    {"from": "a/x", "to": "b/y"}
//	  ]
//	}
//
// Node IDs are normalized repository keys. An edge points from a package to
// a package it depends on. Node metadata, when present, is written under
// "meta".
//
// # Export
//
// Use [ExportJSON] to write a graph to a file, or [WriteJSON] to write to any
// io.Writer.
package io
