// Package dispatcher implements the pub-sub fan-out of spec.md
// §3/§4.13: each subscriber owns a queue.Queue sharing the dispatcher's
// serializer, and Publish copy-pushes into every current subscriber's
// queue. Grounded on queue.NewShared, in the same composition style as
// queue's own embedded semaphore.
package dispatcher
