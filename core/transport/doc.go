// Package transport defines the interface between the delivery engine and the
// underlying network session, together with the error taxonomy the engine's
// retry policy depends on.
//
// The package ships two implementations:
//
//   - WebSocketTransport wraps a gorilla/websocket connection and serializes
//     writes, since gorilla connections permit only one concurrent writer.
//   - ChannelTransport delivers messages over an in-process buffered channel.
//     It is used by same-process consumers and throughout the test suites,
//     where its failure injection hooks simulate timeouts, transient errors
//     and disconnects.
//
// Error classification drives retry behavior:
//
//	err := tr.Send(ctx, msg)
//	switch {
//	case errors.Is(err, transport.ErrClosed):
//	    // peer is gone, do not retry
//	case errors.Is(err, context.DeadlineExceeded):
//	    // send timed out, retry with backoff
//	case err != nil:
//	    // transient, retry with backoff
//	}
package transport
