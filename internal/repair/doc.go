// Package repair drives anti-entropy between hosts. Exchange reconciles
// the gossip routers of two hosts by pull then push; Driver runs exchanges
// with a few random peers on an interval, subject to the peer throttle.
package repair
