// Package recall wraps operations with Redis-backed call tracking and caching.
//
// Three layers are provided, each stateless and backed entirely by a
// redis.Cmdable handed to its constructor:
//
//   - CountCalls and CallHistory instrument a Method with a call counter and
//     input/output history lists, and Replay renders them.
//   - CountAccesses and CacheResult (composed by NewExpiringCache) memoize a
//     one-argument fetch for a fixed TTL and count every access.
//   - Cache stores scalar values under random keys and reads them back with
//     typed decoders.
//
// Key layout:
//
//	<identity>            call counter
//	<identity>:inputs     encoded argument tuples (see EncodeArgs)
//	<identity>:outputs    results
//	result:<arg>          cached fetch result, with TTL
//	count:<arg>           fetch attempts
package recall
