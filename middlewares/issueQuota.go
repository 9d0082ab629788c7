package middlewares

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"civiccare-be/config"
	"civiccare-be/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const quotaCacheTTL = time.Hour

// FreeTierLimited reports whether a reporter with the given lifetime issue
// count has used up the free tier. Only plain citizens are capped; premium
// users, staff and admins report without limit.
func FreeTierLimited(role models.Role, issueCount, limit int64) bool {
	if role != models.RoleCitizen {
		return false
	}
	return issueCount >= limit
}

func quotaKey(email string) string {
	prefix := os.Getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT")
	if prefix == "" {
		prefix = "issueQuota"
	}
	return prefix + ":" + email
}

// InvalidateIssueQuota drops the cached issue count for a reporter so the
// next quota check recounts from the database. Called after a successful
// create or delete.
func InvalidateIssueQuota(ctx context.Context, email string) {
	config.RedisClient.Del(ctx, quotaKey(email))
}

// reportedIssueCount returns how many issues the reporter currently has,
// reading through a Redis cache. The database is the source of truth, so a
// deleted issue frees quota again.
func reportedIssueCount(ctx context.Context, email string) (int64, error) {
	key := quotaKey(email)

	cached, err := config.RedisClient.Get(ctx, key).Result()
	if err == nil {
		if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return count, nil
		}
	} else if err != redis.Nil {
		return 0, err
	}

	count, err := config.GetCollection("issues").CountDocuments(ctx, bson.M{"senderEmail": email})
	if err != nil {
		return 0, err
	}

	config.RedisClient.Set(ctx, key, count, quotaCacheTTL)
	return count, nil
}

// IssueQuota caps how many issues a free-tier citizen may have reported in
// total. The cap is lifetime, not per window. Must run after
// LoadCurrentUser.
func IssueQuota(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		if user.Role != models.RoleCitizen {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		count, err := reportedIssueCount(ctx, user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check issue quota"})
			c.Abort()
			return
		}

		if FreeTierLimited(user.Role, count, int64(limit)) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "free issue limit reached, upgrade to premium to report more",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
