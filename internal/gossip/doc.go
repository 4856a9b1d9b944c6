// Package gossip replicates stored tuples between hosts.
//
// Every tuple a host stores is wrapped in a Message carrying a random id
// and a hop budget. Hosts reconcile by pull: one side advertises the ids it
// still offers, the other answers with the ids it lacks and the first side
// ships those messages. Each relay spends one hop, so a tuple travels at
// most DefaultHopBudget hosts away from where it was written.
//
// Limitations:
// - Delivery is best effort; a tuple consumed before it is fetched is gone
// - There is no removal propagation, so a consumed tuple may survive on
//   other hosts until its leasing runs out
// - Peer contact is rate limited per host by Throttle
package gossip
