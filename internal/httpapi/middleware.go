package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/repositorycache"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID reuses a well formed incoming id or assigns a new uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(r *http.Request, logger log.Interface) log.Interface {
	if id := RequestIDFrom(r.Context()); id != "" {
		return logger.WithField("request_id", id)
	}
	return logger
}

// AccessLog writes one entry per request.
func AccessLog(logger log.Interface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := requestLogger(r, logger).WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request")
				return
			}
			entry.Info("request")
		})
	}
}

// Refresh turns "Cache-Control: no-cache" (or "Pragma: no-cache") into a
// context that bypasses cached reads.
func Refresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-cache") ||
			strings.EqualFold(r.Header.Get("Pragma"), "no-cache") {
			r = r.WithContext(repositorycache.WithRefresh(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// JWTGuard rejects requests without a valid HS256 bearer token signed with
// secret.
func JWTGuard(secret []byte, logger log.Interface) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				writeError(w, r, logger, ErrUnauthorized)
				return
			}
			if _, err := parser.Parse(strings.TrimSpace(raw), keyFunc); err != nil {
				requestLogger(r, logger).WithError(err).Debug("bearer token rejected")
				writeError(w, r, logger, ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CachePolicy controls the Cache-Control header of cacheable responses.
type CachePolicy struct {
	MaxAge         time.Duration
	MustRevalidate bool
}

// Header renders the Cache-Control value.
func (p CachePolicy) Header() string {
	if p.MaxAge <= 0 {
		return "no-cache"
	}
	v := "public, max-age=" + strconv.Itoa(int(p.MaxAge/time.Second))
	if p.MustRevalidate {
		v += ", must-revalidate"
	}
	return v
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// HTTPCache adds a strong ETag and Cache-Control to successful GET and HEAD
// responses, answering 304 when If-None-Match matches.
func HTTPCache(policy CachePolicy) func(http.Handler) http.Handler {
	cacheControl := policy.Header()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)
			if bw.status == 0 {
				bw.status = http.StatusOK
			}

			if bw.status != http.StatusOK {
				w.WriteHeader(bw.status)
				_, _ = w.Write(bw.body.Bytes())
				return
			}

			etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(bw.body.Bytes()))
			w.Header().Set("ETag", etag)
			w.Header().Set("Cache-Control", cacheControl)

			if etagMatches(r.Header.Get("If-None-Match"), etag) {
				w.Header().Del("Content-Type")
				w.Header().Del("Content-Length")
				w.WriteHeader(http.StatusNotModified)
				return
			}

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(bw.body.Bytes())
		})
	}
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
