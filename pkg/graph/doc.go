// Package graph builds the loop graph for knitmesh.
// The loop graph records, row by row, which loops every stitch consumes
// from the row below and which loops it produces. Loops live in a per-row
// arena and are referenced by index, never by pointer, so the graph holds
// no ownership cycles.
package graph
