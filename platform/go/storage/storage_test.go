package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAgentPrefix(t *testing.T) {
	t.Parallel()

	prefix, err := AgentPrefix("dev/", "uid-123")
	require.NoError(t, err)
	require.Equal(t, "dev/agents/uid-123/", prefix)

	prefix, err = AgentPrefix("", "a/b")
	require.NoError(t, err)
	require.Equal(t, "agents/a_b/", prefix)

	_, err = AgentPrefix("dev", " ")
	require.Error(t, err)
}

func TestResolveObjectLocation(t *testing.T) {
	t.Parallel()

	key := ExportKey("leads.csv", time.Date(2024, time.March, 10, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)))
	require.Equal(t, "exports/20240310T170000Z/leads.csv", key)

	loc, err := ResolveObjectLocation("crm-dev-exports", "dev/agents/uid-123/", key)
	require.NoError(t, err)
	require.Equal(t, "crm-dev-exports", loc.Bucket)
	require.Equal(t, "dev/agents/uid-123/exports/20240310T170000Z/leads.csv", loc.FullPath)
	require.Equal(t, "crm-dev-exports/dev/agents/uid-123/exports/20240310T170000Z/leads.csv", loc.String())
}

func TestResolveObjectLocation_trimsSlashAndValidates(t *testing.T) {
	t.Parallel()

	loc, err := ResolveObjectLocation("bucket", "dev/agents/uid-123", "/exports/leads.csv")
	require.NoError(t, err)
	require.Equal(t, "dev/agents/uid-123/exports/leads.csv", loc.FullPath)

	_, err = ResolveObjectLocation("", "dev/", "file")
	require.Error(t, err)

	_, err = ResolveObjectLocation("bucket", "dev/", " ")
	require.Error(t, err)

	_, err = ResolveObjectLocation("bucket", "", "file")
	require.Error(t, err)
}

func TestLocalArchive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	archive, bucket, err := OpenArchive(context.Background(), "file://"+filepath.ToSlash(filepath.Join(root, "exports-bucket")))
	require.NoError(t, err)
	require.Equal(t, "exports-bucket", bucket)

	require.NoError(t, archive.Check(context.Background(), bucket, "dev/agents/uid-123/"))

	loc, err := ResolveObjectLocation(bucket, "dev/agents/uid-123/", "exports/leads.csv")
	require.NoError(t, err)
	require.NoError(t, archive.Put(context.Background(), loc, "text/csv", []byte("a,b\n")))

	body, err := os.ReadFile(filepath.Join(root, "exports-bucket", "dev", "agents", "uid-123", "exports", "leads.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b\n", string(body))
}

func TestOpenArchiveRejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	_, _, err := OpenArchive(context.Background(), "s3://bucket")
	require.ErrorContains(t, err, "unsupported archive scheme")

	_, _, err = OpenArchive(context.Background(), "gs://")
	require.Error(t, err)
}
