package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/flightseats/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	headerIdempotencyHit = "X-Idempotency-Hit"
)

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
			log.Error("request failed", fields...)
			return
		}
		log.Info("request handled", fields...)
	}
}

type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*cache.StoredResponse, bool, error)
	Complete(ctx context.Context, key string, resp cache.StoredResponse) error
	Release(ctx context.Context, key string) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a client repeats a request
// with the same Idempotency-Key and body. A reused key with a different
// body is rejected with 422. Requests without the header pass through, and
// so do all requests while the store is unreachable.
func Idempotency(store IdempotencyStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(headerIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		ctx := c.Request.Context()
		stored, ok, err := store.Begin(ctx, key)
		if err != nil {
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			if stored == nil {
				c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: "request with this Idempotency-Key is in progress"})
				return
			}
			if stored.RequestHash != "" && stored.RequestHash != requestHash {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: "Idempotency-Key was already used with a different request body"})
				return
			}
			c.Header(headerIdempotencyHit, "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		// Server-side failures are not final; let the client retry with the key.
		endCtx := context.WithoutCancel(ctx)
		if rw.Status() >= http.StatusInternalServerError {
			if err := store.Release(endCtx, key); err != nil {
				log.Warn("release idempotency key", zap.Error(err))
			}
			return
		}
		if err := store.Complete(endCtx, key, cache.StoredResponse{Status: rw.Status(), Body: rw.body.Bytes(), RequestHash: requestHash}); err != nil {
			log.Warn("store idempotent response", zap.Error(err))
		}
	}
}
