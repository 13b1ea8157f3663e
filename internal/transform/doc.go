// Package transform holds the content transforms applied by asset tasks:
// script transpiling, stylesheet compiling and vendor prefixing. Each is an
// interface so tasks can be tested with fakes; the default implementations
// use esbuild in-process and the sass command line compiler.
package transform
