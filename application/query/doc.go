// Package query executes encoded queries against a program engine.
//
// A query is the msgpack encoding of a program and its arguments. The
// executor converts the caller's weight budget to engine gas, runs the
// program and maps engine failures: malformed programs and exhausted
// budgets abort the query, while failures inside the program are returned
// as an encoded error code so the caller still gets an answer.
package query
