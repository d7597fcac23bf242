// Package config loads server configuration from environment variables
// and command-line flags, following the getEnv-with-default idiom of
// _examples/adarshm11-RapidRTMP/config/config.go, extended with the
// JAVELIN_* variables and flags SPEC_FULL.md §6 defines.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"javelin/internal/fanout"
)

// Config holds every setting the server needs at startup.
type Config struct {
	RTMPBind string
	RTMPPort int
	RTMPSPort int

	TLSEnabled     bool
	TLSCertPath    string
	TLSCertPassword string

	StreamKeys map[string]string
	Republish  fanout.RepublishPolicy

	HLSEnabled bool
	HLSRoot    string

	AdminBind string
}

// Load parses flags (which win when set) over environment variables
// (which win over defaults), matching the override order most of the
// pack's CLI tools use.
func Load(args []string) *Config {
	fs := flag.NewFlagSet("javelind", flag.ExitOnError)

	rtmpPort := fs.Int("rtmp-port", getIntEnv("JAVELIN_RTMP_PORT", 1935), "RTMP listen port")
	hlsRoot := fs.String("hls-root", getEnv("JAVELIN_HLS_ROOT", "./data/hls"), "HLS output directory")
	republish := fs.String("republish-action", getEnv("JAVELIN_REPUBLISH_ACTION", "replace"), "republish policy: replace|deny")

	_ = fs.Parse(args)

	return &Config{
		RTMPBind:  getEnv("JAVELIN_RTMP_BIND", "0.0.0.0"),
		RTMPPort:  *rtmpPort,
		RTMPSPort: getIntEnv("JAVELIN_RTMPS_PORT", 1936),

		TLSEnabled:      getBoolEnv("JAVELIN_TLS_ENABLED", false),
		TLSCertPath:     getEnv("JAVELIN_TLS_CERT_PATH", ""),
		TLSCertPassword: os.Getenv("JAVELIN_TLS_PASSWORD"),

		StreamKeys: parseStreamKeys(getEnv("JAVELIN_STREAM_KEYS", "")),
		Republish:  fanout.ParseRepublishPolicy(*republish),

		HLSEnabled: getBoolEnv("JAVELIN_HLS_ENABLED", true),
		HLSRoot:    *hlsRoot,

		AdminBind: getEnv("JAVELIN_ADMIN_BIND", ":8080"),
	}
}

// parseStreamKeys parses JAVELIN_STREAM_KEYS's "app1=key1,app2=key2" form
// into an app->key map, per spec.md §6's rtmp.permitted_stream_keys.
func parseStreamKeys(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
