// Package appid holds the static application identity used for naming the
// binary, the environment prefix and the per-user config/data directories.
package appid

import "strings"

// Identity describes how the application presents itself.
type Identity struct {
	BinaryName         string
	Vendor             string
	ConfigName         string
	EnvPrefix          string
	Description        string
	TelemetryNamespace string
}

var current = Identity{
	BinaryName:         "linear-mcp",
	Vendor:             "linearmcp",
	ConfigName:         "linear-mcp",
	EnvPrefix:          "LINEAR_MCP_",
	Description:        "MCP server exposing the Linear issue tracker with client-side rate governance",
	TelemetryNamespace: "linear_mcp",
}

// Get returns the application identity.
func Get() Identity {
	return current
}

// EnvVar returns the fully prefixed environment variable for key, e.g.
// EnvVar("log_level") == "LINEAR_MCP_LOG_LEVEL".
func EnvVar(key string) string {
	key = strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	return current.EnvPrefix + key
}
