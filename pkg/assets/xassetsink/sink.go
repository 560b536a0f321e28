package xassetsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
)

// Sink 资源重试结果的 Redis 写入端，并发安全。
//
// Sink 不持有 client 的生命周期，关闭由调用方负责。
type Sink struct {
	client   redis.UniversalClient
	prefix   string
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// New 创建 Sink。
func New(client redis.UniversalClient, opts ...Option) (*Sink, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.attempts <= 0 {
		return nil, ErrInvalidAttempts
	}
	return &Sink{
		client:   client,
		prefix:   o.prefix,
		attempts: uint(o.attempts),
		delay:    o.delay,
		logger:   o.logger,
	}, nil
}

// FailKey 返回失败路径列表的键。
func (s *Sink) FailKey() string { return s.prefix + ":fail" }

// SuccessKey 返回重试后成功路径列表的键。
func (s *Sink) SuccessKey() string { return s.prefix + ":success" }

// DomainsKey 返回已发布源域名集合的键。
func (s *Sink) DomainsKey() string { return s.prefix + ":domains" }

// DomainKey 返回 domain 统计哈希的键。
func (s *Sink) DomainKey(domain string) string { return s.prefix + ":domain:" + domain }

// RecordFail 追加一条最终失败的路径。
func (s *Sink) RecordFail(ctx context.Context, path string) error {
	return s.do(ctx, func() error {
		return s.client.RPush(ctx, s.FailKey(), path).Err()
	})
}

// RecordSuccess 追加一条重试后成功的路径。
func (s *Sink) RecordSuccess(ctx context.Context, path string) error {
	return s.do(ctx, func() error {
		return s.client.RPush(ctx, s.SuccessKey(), path).Err()
	})
}

// OnFail 可作为 xassetretry.WithOnFail 的回调。写入失败只记录日志。
func (s *Sink) OnFail(ctx context.Context, path string) {
	if err := s.RecordFail(ctx, path); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "xassetsink: record fail path",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// OnSuccess 可作为 xassetretry.WithOnSuccess 的回调。写入失败只记录日志。
func (s *Sink) OnSuccess(ctx context.Context, path string) {
	if err := s.RecordSuccess(ctx, path); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "xassetsink: record success path",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// Publish 把快照写入 Redis。同一源域名的哈希整体覆盖，一次调用在一个事务中完成。
func (s *Sink) Publish(ctx context.Context, snapshot map[string]xassetretry.Stats) error {
	if len(snapshot) == 0 {
		return nil
	}
	type entry struct {
		key    string
		fields []any
	}
	entries := make([]entry, 0, len(snapshot))
	domains := make([]any, 0, len(snapshot))
	for _, domain := range slices.Sorted(maps.Keys(snapshot)) {
		st := snapshot[domain]
		failed, err := json.Marshal(nonNil(st.Failed))
		if err != nil {
			return fmt.Errorf("xassetsink: encode failed urls: %w", err)
		}
		succeeded, err := json.Marshal(nonNil(st.Succeeded))
		if err != nil {
			return fmt.Errorf("xassetsink: encode succeeded urls: %w", err)
		}
		entries = append(entries, entry{
			key: s.DomainKey(domain),
			fields: []any{
				"retry_count", st.RetryCount,
				"failed", string(failed),
				"succeeded", string(succeeded),
			},
		})
		domains = append(domains, domain)
	}

	return s.do(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, e := range entries {
				pipe.Del(ctx, e.key)
				pipe.HSet(ctx, e.key, e.fields...)
			}
			pipe.SAdd(ctx, s.DomainsKey(), domains...)
			return nil
		})
		return err
	})
}

// Fails 返回已记录的失败路径，按写入顺序。
func (s *Sink) Fails(ctx context.Context) ([]string, error) {
	return s.client.LRange(ctx, s.FailKey(), 0, -1).Result()
}

// Successes 返回已记录的重试后成功路径，按写入顺序。
func (s *Sink) Successes(ctx context.Context) ([]string, error) {
	return s.client.LRange(ctx, s.SuccessKey(), 0, -1).Result()
}

// Stats 读取 Publish 写入的 domain 统计。不存在时返回 ok=false。
func (s *Sink) Stats(ctx context.Context, domain string) (xassetretry.Stats, bool, error) {
	m, err := s.client.HGetAll(ctx, s.DomainKey(domain)).Result()
	if err != nil {
		return xassetretry.Stats{}, false, err
	}
	if len(m) == 0 {
		return xassetretry.Stats{}, false, nil
	}
	st := xassetretry.Stats{Domain: domain}
	if st.RetryCount, err = strconv.Atoi(m["retry_count"]); err != nil {
		return xassetretry.Stats{}, false, fmt.Errorf("xassetsink: decode retry_count: %w", err)
	}
	if err := json.Unmarshal([]byte(m["failed"]), &st.Failed); err != nil {
		return xassetretry.Stats{}, false, fmt.Errorf("xassetsink: decode failed urls: %w", err)
	}
	if err := json.Unmarshal([]byte(m["succeeded"]), &st.Succeeded); err != nil {
		return xassetretry.Stats{}, false, fmt.Errorf("xassetsink: decode succeeded urls: %w", err)
	}
	return st, true, nil
}

// do 按配置的次数与退避执行 fn，ctx 结束时立即返回。
func (s *Sink) do(ctx context.Context, fn func() error) error {
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
	).Do(fn)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
