// Package drawer renders resolved plans as Graphviz DOT documents.
package drawer
