package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sarchlab/cachehit/cache"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "CACHEHIT_"

// LookupFunc looks up one environment variable.
type LookupFunc func(key string) (string, bool)

// ReadEnvFile returns a lookup over the variables of one .env file without
// touching the process environment.
func ReadEnvFile(path string) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}, nil
}

// ApplyProcessEnv applies CACHEHIT_* variables of the process environment.
func (c *Config) ApplyProcessEnv() error {
	return c.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides settings from CACHEHIT_* variables.
//
//	CACHEHIT_RECORD_ALL, CACHEHIT_ECHO          bool
//	CACHEHIT_SITE_REPORT, ..._DETAILED_SITE_REPORT,
//	CACHEHIT_TASK_REPORT, ..._DETAILED_TASK_REPORT,
//	CACHEHIT_SQLITE_REPORT, CACHEHIT_MERGED_TRACE path
//	CACHEHIT_LINE_SIZE, CACHEHIT_STORE_CAPACITY  int
//	CACHEHIT_CACHE_SIZES                          comma separated sizes, e.g. 2M,8M
//	CACHEHIT_POLICY                               mtf or lru
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"SITE_REPORT":          &c.SiteReport,
		"DETAILED_SITE_REPORT": &c.DetailedSiteReport,
		"TASK_REPORT":          &c.TaskReport,
		"DETAILED_TASK_REPORT": &c.DetailedTaskReport,
		"SQLITE_REPORT":        &c.SQLiteReport,
		"MERGED_TRACE":         &c.MergedTrace,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"RECORD_ALL": &c.RecordAll,
		"ECHO":       &c.Echo,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	ints := map[string]*int{
		"LINE_SIZE":      &c.LineSize,
		"STORE_CAPACITY": &c.StoreCapacity,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "CACHE_SIZES"); ok {
		sizes, err := ParseSizes(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_SIZES: %w", EnvPrefix, err)
		}
		c.SetCacheSizes(sizes)
	}

	if v, ok := lookup(EnvPrefix + "POLICY"); ok {
		c.SetPolicy(cache.Policy(v))
	}

	return nil
}

// SetCacheSizes replaces the measured configurations with one per size,
// keeping the associativity and policy of the first configured cache.
func (c *Config) SetCacheSizes(sizes []int) {
	template := cache.DefaultConfig()
	if len(c.Caches) > 0 {
		template = c.Caches[0]
	}
	template.BlockSize = c.LineSize

	c.Caches = c.Caches[:0]
	for _, s := range sizes {
		cc := template
		cc.Size = s
		c.Caches = append(c.Caches, cc)
	}
}

// SetPolicy sets the replacement policy of every configured cache.
func (c *Config) SetPolicy(p cache.Policy) {
	for i := range c.Caches {
		c.Caches[i].Policy = p
	}
}

// ParseSizes parses a comma separated list of sizes.
func ParseSizes(s string) ([]int, error) {
	var sizes []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := ParseSize(field)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, n)
	}

	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes in %q", s)
	}

	return sizes, nil
}

// ParseSize parses a byte size with an optional K/KB/M/MB suffix.
func ParseSize(s string) (int, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	upper = strings.TrimSuffix(upper, "B")

	mult := 1
	switch {
	case strings.HasSuffix(upper, "K"):
		mult = cache.KB
		upper = strings.TrimSuffix(upper, "K")
	case strings.HasSuffix(upper, "M"):
		mult = cache.MB
		upper = strings.TrimSuffix(upper, "M")
	}

	n, err := strconv.Atoi(upper)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	return n * mult, nil
}
