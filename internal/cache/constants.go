package cache

import (
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// key names definition
const (
	MovieListKey    = "catalog:movies"     // cached list of all movies
	MovieKey        = "catalog:movie:%d"   // cached movie detail, '%d' is movie id
	StatsSummaryKey = "stats:summary"      // cached admin dashboard snapshot
	RateLimitKey    = "ratelimit:%s:%s:%d" // request counter: scope, client, window number
)

func MakeMovieKey(movieID uint) string {
	return fmt.Sprintf(MovieKey, movieID)
}

func MakeRateLimitKey(scope, client string, window int64) string {
	return fmt.Sprintf(RateLimitKey, scope, client, window)
}

// errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// lua scripts

// fixed window counter; the first hit of a window sets its expiry so the
// counter and its TTL are created atomically
var rateLimitScript = redis.NewScript(`
	-- KEYS[1] = ratelimit:{scope}:{client}:{window}
	-- ARGV[1] = window length in milliseconds

	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`)
