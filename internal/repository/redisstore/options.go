package redisstore

import (
	"crypto/tls"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ParseOptions accepts a redis:// URL or the "host:port,password=..,ssl=true"
// form used by managed Redis connection strings.
func ParseOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		case "db":
			if n, err := strconv.Atoi(kv[1]); err == nil {
				opts.DB = n
			}
		}
	}
	return opts
}
