// Command narrate drives the accessibility description pipeline from the
// terminal: submit inputs, watch jobs advance, and inspect finished
// descriptions.
package main
