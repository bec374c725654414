// Package flat provides an exact L2 nearest-neighbour index.
// Search compares the query against every stored vector, which is the
// right trade-off for the few hundred chunks a manual produces.
package flat
