package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-rank-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.RedisConfig
		wantErr   bool
		wantAddrs []string
		wantDB    int
		master    string
	}{
		{
			name:      "single по Addr",
			cfg:       config.RedisConfig{Mode: "single", Addr: "redis:6379", DB: 2},
			wantAddrs: []string{"redis:6379"},
			wantDB:    2,
		},
		{
			name:      "single берет первый из Addrs",
			cfg:       config.RedisConfig{Addrs: []string{"a:1", "b:2"}},
			wantAddrs: []string{"a:1"},
		},
		{
			name:      "sentinel",
			cfg:       config.RedisConfig{Mode: "sentinel", Addrs: []string{"s1:26379", "s2:26379"}, MasterName: "mymaster"},
			wantAddrs: []string{"s1:26379", "s2:26379"},
			master:    "mymaster",
		},
		{
			name:      "cluster сбрасывает DB",
			cfg:       config.RedisConfig{Mode: "cluster", Addrs: []string{"c1:7000", "c2:7001"}, DB: 3},
			wantAddrs: []string{"c1:7000", "c2:7001"},
		},
		{name: "нет адресов", cfg: config.RedisConfig{Mode: "single"}, wantErr: true},
		{name: "sentinel без master", cfg: config.RedisConfig{Mode: "sentinel", Addr: "s:1"}, wantErr: true},
		{name: "cluster с одним адресом", cfg: config.RedisConfig{Mode: "cluster", Addr: "c:1"}, wantErr: true},
		{name: "неизвестный режим", cfg: config.RedisConfig{Mode: "ring", Addr: "r:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddrs, opts.Addrs)
			assert.Equal(t, tt.wantDB, opts.DB)
			assert.Equal(t, tt.master, opts.MasterName)
		})
	}
}

func TestRedisOptions_Backoff(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{Addr: "r:1", MaxRetries: 5, MinRetryBackoff: 8, MaxRetryBackoff: 512})

	require.NoError(t, err)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, 8*time.Millisecond, opts.MinRetryBackoff)
	assert.Equal(t, 512*time.Millisecond, opts.MaxRetryBackoff)
}
