/*
Package observability provides the prometheus collectors of podium.

Collectors are registered on a caller-provided registry and fed by the execution engine,
the render pool and the reload loop. A nil *Metrics is valid and records nothing, so
components never need to check whether metrics are enabled.
*/
package observability
