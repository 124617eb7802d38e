// Package stats counts the protocol traffic of a routing node.
//
// Stats is a pure observer: the node classifies every message it sends into
// one of the direct, hop or user families and bumps the matching counter.
// Every MsgLogCount messages a snapshot of all the counters is logged. The
// counters are cumulative since the process started; nothing is ever reset.
package stats
