package contracts

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	doc, err := Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, doc.Components.SecuritySchemes, "bearerAuth")
	require.Equal(t, "/api/v1", doc.Servers[0].URL)

	operations := map[string]string{}
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			operations[op.OperationID] = method + " " + path
		}
	}

	require.Equal(t, http.MethodGet+" /leads", operations["leadsList"])
	require.Equal(t, http.MethodPost+" /leads/{leadId}/updates", operations["leadsLogUpdate"])
	require.Equal(t, http.MethodPatch+" /quick-notes/{quickNoteId}", operations["quickNotesEdit"])
	require.Equal(t, http.MethodPost+" /quick-notes/{quickNoteId}/convert", operations["quickNotesConvert"])
	require.Len(t, operations, 17)
}

func TestStatusesIsPublic(t *testing.T) {
	t.Parallel()

	doc, err := Load(context.Background())
	require.NoError(t, err)

	statuses := doc.Paths.Value("/statuses").Get
	require.NotNil(t, statuses.Security)
	require.Empty(t, *statuses.Security)
	require.Nil(t, doc.Paths.Value("/leads").Get.Security)
}
