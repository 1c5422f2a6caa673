// Package recovery stores messages that could not be delivered immediately,
// bounded per user, for redelivery once the user reconnects.
//
// Each user has an ordered FIFO backlog capped at DefaultMaxPerUser entries;
// enqueueing beyond the cap evicts the oldest entry. Drain returns and
// clears the backlog in original enqueue order and is atomic with respect to
// concurrent enqueues for the same user.
//
// Two backends are provided. MemoryStore keeps backlogs in process memory
// and is the default. RedisStore keeps them in Redis lists so backlogs
// survive process restarts:
//
//	store := recovery.NewRedisStore(redisClient)
//	err := store.Enqueue(ctx, "user-1", recovery.Entry{
//	    Message: envelope,
//	    Reason:  "send_timeout",
//	})
package recovery
