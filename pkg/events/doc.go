// Package events streams per-test verdicts to live consumers while a
// campaign runs.
//
// Every finished test flattens into an Event carrying the verdict, the
// inconsistency list and the failed adapter set. The configured transport
// decides where events go: the structured log (default), a Kafka topic or a
// RabbitMQ exchange. Sinks satisfy the runner's persistence contract, so
// they plug in next to the result store.
package events
