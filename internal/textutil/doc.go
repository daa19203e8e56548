// Package textutil provides the text processing primitives used by the
// description synthesizer: tokenization, word-overlap similarity between
// free-text contexts, sentence-boundary condensing, and word/sentence
// counting.
//
// Tokenization lowercases text, splits on non-alphanumeric characters, and
// filters tokens shorter than 3 characters.
package textutil
