// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for the identifiers of
deployment plan nodes and of the endpoints inside them.

The canonical format is a dot-separated sequence of segments, each an
optional index in brackets, e.g. `web[0]` for the first instance of the node
template `web`, or `web[0].host` for its `host` capability.

Addresses order by segment: names lexicographically, then indices
numerically, so `web[2]` sorts before `web[10]`. Requirement matching relies
on this order to pick candidates deterministically.
*/
package nodeid
