package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envBindings maps deployment environment variables onto config paths.
var envBindings = []struct {
	env  string
	path []string
	kind string
}{
	{env: "SERVICE_NAME", path: []string{"service_name"}},
	{env: "WHATSAPP_API_BASE_URL", path: []string{"whatsapp", "api_base_url"}},
	{env: "WHATSAPP_API_VERSION", path: []string{"whatsapp", "api_version"}},
	{env: "WHATSAPP_API_TOKEN", path: []string{"whatsapp", "access_token"}},
	{env: "WHATSAPP_PHONE_NUMBER_ID", path: []string{"whatsapp", "phone_number_id"}},
	{env: "WHATSAPP_BUSINESS_ACCOUNT_ID", path: []string{"whatsapp", "business_account_id"}},
	{env: "WEBHOOK_VERIFY_TOKEN", path: []string{"whatsapp", "verify_token"}},
	{env: "WHATSAPP_APP_SECRET", path: []string{"whatsapp", "app_secret"}},
	{env: "WHATSAPP_REQUEST_TIMEOUT_SECONDS", path: []string{"whatsapp", "request_timeout_seconds"}, kind: "int"},
	{env: "DISPATCH_FLOWS_DISABLED", path: []string{"dispatch", "flows_disabled"}, kind: "bool"},
	{env: "DISPATCH_MAX_CONCURRENT_SENDS", path: []string{"dispatch", "max_concurrent_sends"}, kind: "int"},
	{env: "PORT", path: []string{"http", "addr"}, kind: "port"},
	{env: "HTTP_ADDR", path: []string{"http", "addr"}},
	{env: "DATABASE_DRIVER", path: []string{"database", "driver"}},
	{env: "DATABASE_URL", path: []string{"database", "dsn"}},
	{env: "DATABASE_DEBUG", path: []string{"database", "debug"}, kind: "bool"},
	{env: "CACHE_TTL_SECONDS", path: []string{"cache", "ttl_seconds"}, kind: "int"},
}

type EnvConfigLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() *EnvConfigLoader {
	return &EnvConfigLoader{Lookup: os.LookupEnv}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := os.LookupEnv
	if l != nil && l.Lookup != nil {
		lookup = l.Lookup
	}
	raw := map[string]any{}
	for _, binding := range envBindings {
		value, ok := lookup(binding.env)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		var typed any = value
		switch binding.kind {
		case "int":
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("core: env %s is invalid: %w", binding.env, err)
			}
			typed = parsed
		case "bool":
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("core: env %s is invalid: %w", binding.env, err)
			}
			typed = parsed
		case "port":
			typed = ":" + strings.TrimPrefix(value, ":")
		}
		setPath(raw, binding.path, typed)
	}
	return raw, nil
}

// YAMLFileLoader reads a config file. A missing file yields an empty map
// unless Required is set.
type YAMLFileLoader struct {
	Path     string
	Required bool
	FS       fs.FS
}

func (l YAMLFileLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	var (
		data []byte
		err  error
	)
	if l.FS != nil {
		data, err = fs.ReadFile(l.FS, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !l.Required {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("core: read config file %q: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: parse config file %q: %w", path, err)
	}
	return raw, nil
}

// LayeredConfigLoader deep-merges loaders in order; later loaders win.
type LayeredConfigLoader []RawConfigLoader

func (l LayeredConfigLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	merged := map[string]any{}
	for _, loader := range l {
		if loader == nil {
			continue
		}
		raw, err := loader.LoadRaw(ctx)
		if err != nil {
			return nil, err
		}
		mergeRaw(merged, raw)
	}
	return merged, nil
}

func setPath(target map[string]any, path []string, value any) {
	current := target
	for idx, key := range path {
		if idx == len(path)-1 {
			current[key] = value
			return
		}
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
}

func mergeRaw(dst map[string]any, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeRaw(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			copied := map[string]any{}
			mergeRaw(copied, srcMap)
			dst[key] = copied
			continue
		}
		dst[key] = value
	}
}
