// Package storage places lead exports in a bucket under an agent-scoped prefix.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// String renders the location as bucket/path.
func (l ObjectLocation) String() string {
	return l.Bucket + "/" + l.FullPath
}

// AgentPrefix returns `<envKey>/agents/<agentID>/`. Agent ids are opaque
// provider uids, so only path separators are replaced.
func AgentPrefix(envKey, agentID string) (string, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return "", fmt.Errorf("agent id is required")
	}
	agentID = strings.NewReplacer("/", "_", "\\", "_").Replace(agentID)

	envKey = strings.Trim(strings.TrimSpace(envKey), "/")
	if envKey == "" {
		return "agents/" + agentID + "/", nil
	}
	return envKey + "/agents/" + agentID + "/", nil
}

// ExportKey is the logical key of an export file written at now.
func ExportKey(filename string, now time.Time) string {
	return "exports/" + now.UTC().Format("20060102T150405Z") + "/" + filename
}

// ResolveObjectLocation combines an agent prefix and logical key into a bucket/path pair.
//   - bucket must come from deployment configuration.
//   - prefix comes from AgentPrefix and carries a trailing slash (e.g. "dev/agents/abc123/").
//   - logicalKey is an agent-relative key such as "exports/20240310T120000Z/leads.csv".
func ResolveObjectLocation(bucket, prefix, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	key := strings.TrimSpace(logicalKey)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}

	if prefix == "" {
		return ObjectLocation{}, fmt.Errorf("agent prefix is missing")
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return ObjectLocation{Bucket: bucket, FullPath: prefix + key}, nil
}
