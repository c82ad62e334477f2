package handler

import (
	"context"
	"net/http"
	"time"

	"stockroom/internal/infra"
	"stockroom/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health checks DB and Redis connectivity and reports the mail breaker and
// dead-letter backlog. Redis is optional: when it is down the API still
// serves, so only the database decides the status code.
func Health(db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				dlq := gin.H{}
				for _, q := range []string{worker.QueueAudit, worker.QueueEmail} {
					if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
						dlq[q] = n
					}
				}
				body["dlq"] = dlq
			}
		}
		body["redis"] = redisStatus

		if mailCB != nil {
			body["mail_breaker"] = mailCB.Snapshot()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
