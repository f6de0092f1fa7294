// Package resilience holds the socket-level fault handling used by the
// transport: bounded retry with exponential backoff, a circuit breaker and
// a token bucket rate limiter.
//
// None of these look at HTTP status codes. The transport feeds them only
// connection-level outcomes, so a 412 from the API never opens the breaker
// and is never retried.
//
//	br := resilience.NewBreaker(resilience.BreakerConfig{Name: "api", MaxFailures: 5})
//	lim := resilience.NewLimiter(resilience.LimiterConfig{Rate: 50, Burst: 10})
//
//	resp, err := resilience.Retry(ctx, retryCfg, func(attempt int) (*Response, error) {
//	    if err := lim.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    return resilience.Run(br, func() (*Response, error) { return send(ctx) })
//	})
package resilience
