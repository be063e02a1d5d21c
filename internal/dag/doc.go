// Package dag holds the dependency graph of a deployment plan: one vertex per
// plan node, one edge per bound requirement, pointing from the target a node
// depends on to the node itself.
//
// Every query returns IDs in a stable order, so cycle reports and plan
// dumps do not depend on map iteration.
package dag
