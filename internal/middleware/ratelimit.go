package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"arche/internal/models"
	"arche/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot count it.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Limit is a fixed-window quota shared by every route that names it.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
	Policy   FailPolicy
}

// Quotas applied to the public API. Sign-in fails closed so that a Redis
// outage cannot be used to brute-force passwords.
var (
	SignUpLimit      = Limit{Name: "signup", Requests: 3, Window: 10 * time.Minute}
	SignInLimit      = Limit{Name: "signin", Requests: 10, Window: 5 * time.Minute, Policy: FailClosed}
	SavoirWriteLimit = Limit{Name: "create_savoir", Requests: 10, Window: time.Minute}
	SearchLimit      = Limit{Name: "search", Requests: 30, Window: time.Minute}
	VoteLimit        = Limit{Name: "vote", Requests: 60, Window: time.Minute}
	CommentLimit     = Limit{Name: "create_comment", Requests: 10, Window: time.Minute}
	ReactionLimit    = Limit{Name: "reaction", Requests: 60, Window: time.Minute}
	ImageUploadLimit = Limit{Name: "image_upload", Requests: 20, Window: time.Minute}
)

// Decision is the outcome of counting one request against a Limit.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

var errNoStore = errors.New("rate limit store unavailable")

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return true
	}
	return false
}

// CheckRateLimit counts one request by id against l. Counting is skipped
// when APP_ENV is unset, "development" or "test".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, l Limit, id string) (Decision, error) {
	if rateLimitBypassed() {
		return Decision{Allowed: true, Remaining: l.Requests}, nil
	}
	if rdb == nil {
		return Decision{}, errNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", l.Name, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
		return Decision{}, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, l.Window)
	}

	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.Window
	}
	remaining := l.Requests - int(cnt)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: cnt <= int64(l.Requests), Remaining: remaining, ResetIn: ttl}, nil
}

// RateLimit enforces l per viewer: the authenticated user when there is one,
// otherwise the client IP.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid := UserID(c); uid != "" {
			id = "user:" + uid
		}

		d, err := CheckRateLimit(c.UserContext(), rdb, l, id)
		if err != nil {
			if l.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"limit", l.Name, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Service momentanément indisponible",
					Code:  models.CodeUnavailable,
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Requests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			observability.RateLimited.WithLabelValues(l.Name).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Trop de requêtes, réessayez plus tard",
				Code:  models.CodeRateLimited,
			})
		}
		return c.Next()
	}
}
