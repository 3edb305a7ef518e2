// Package rvideo implements a lightweight multi-stream video broadcasting
// server and client over a small TCP-framed binary protocol: a greeting, a
// one-shot stream selection, a stream descriptor reply, and a stream of
// length-prefixed frames. The server fans frames out to any number of
// subscribers using a single-slot, drop-oldest mailbox per client so a
// slow viewer never backpressures the producer or other viewers.
package rvideo
