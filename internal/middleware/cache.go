package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/file-manager/internal/config"
	"github.com/iliyamo/file-manager/internal/logging"
)

// bodyRecorder tees the response body into a bounded buffer.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int64
	over   bool
}

func (r *bodyRecorder) WriteHeader(code int) { r.status = code; r.ResponseWriter.WriteHeader(code) }

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.limit > 0 && int64(r.buf.Len()+len(b)) > r.limit {
		r.over = true
	} else if !r.over {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey hashes the parts of the request selected by cfg.KeyStrategy.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // "route_query"
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// cachedResponse is stored as [4 bytes status][4 bytes header len][header JSON][body].
type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

func (cr cachedResponse) marshal() ([]byte, error) {
	hdr, err := json.Marshal(cr.header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(cr.body))
	binary.BigEndian.PutUint32(out[0:4], uint32(cr.status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], cr.body)
	return out, nil
}

func unmarshalCached(bs []byte) (cachedResponse, bool) {
	if len(bs) < 8 {
		return cachedResponse{}, false
	}
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return cachedResponse{}, false
	}
	cr := cachedResponse{status: int(binary.BigEndian.Uint32(bs[0:4])), header: http.Header{}}
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &cr.header); err != nil {
			return cachedResponse{}, false
		}
	}
	cr.body = bs[8+hlen:]
	return cr, true
}

func (cr cachedResponse) replay(c echo.Context) error {
	h := c.Response().Header()
	for k, vals := range cr.header {
		if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, "X-Cache") {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cr.status)
	_, err := c.Response().Write(cr.body)
	return err
}

// NewRedisCache caches successful responses of the wrapped routes in Redis,
// headers included. Redis failures fall through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb redis.Cmdable, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			bs, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				if cr, ok := unmarshalCached(bs); ok {
					return cr.replay(c)
				}
			case !errors.Is(err, redis.Nil):
				log.Debug(ctx, "cache read failed", "key", key, "error", err)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.over {
				return nil
			}

			hdr := c.Response().Header().Clone()
			payload, err := cachedResponse{status: rec.status, header: hdr, body: rec.buf.Bytes()}.marshal()
			if err != nil {
				return nil
			}
			// the request context may already be cancelled once the body is sent
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.Debug(ctx, "cache write failed", "key", key, "error", err)
			}
			return nil
		}
	}
}
