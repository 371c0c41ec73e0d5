package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestQuickNoteStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx, pool := startPostgres(t)
	store, err := NewQuickNoteStore(pool)
	require.NoError(t, err)

	first, err := store.CreateQuickNote(ctx, "agent-a", "Pizza place on 5th wants 30k")
	require.NoError(t, err)
	require.Equal(t, QuickNotePending, first.Status)
	require.Nil(t, first.ConvertedLeadID)

	second, err := store.CreateQuickNote(ctx, "agent-a", "Call back the florist")
	require.NoError(t, err)

	notes, err := store.ListQuickNotes(ctx, "agent-a")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, second.QuickNoteID, notes[0].QuickNoteID)

	others, err := store.ListQuickNotes(ctx, "agent-b")
	require.NoError(t, err)
	require.Empty(t, others)

	leadID := uuid.New()
	converted, err := store.MarkQuickNoteConverted(ctx, "agent-a", first.QuickNoteID, leadID)
	require.NoError(t, err)
	require.Equal(t, QuickNoteConverted, converted.Status)
	require.Equal(t, leadID, *converted.ConvertedLeadID)

	_, err = store.MarkQuickNoteConverted(ctx, "agent-a", first.QuickNoteID, uuid.New())
	require.ErrorIs(t, err, ErrQuickNoteNotFound, "a converted note cannot convert again")

	edited, err := store.UpdateQuickNoteText(ctx, "agent-a", first.QuickNoteID, "Pizza place wants 35k")
	require.NoError(t, err)
	require.Equal(t, QuickNotePending, edited.Status)
	require.Nil(t, edited.ConvertedLeadID)

	_, err = store.UpdateQuickNoteText(ctx, "agent-b", first.QuickNoteID, "hijack")
	require.ErrorIs(t, err, ErrQuickNoteNotFound)

	require.ErrorIs(t, store.DeleteQuickNote(ctx, "agent-b", second.QuickNoteID), ErrQuickNoteNotFound)
	require.NoError(t, store.DeleteQuickNote(ctx, "agent-a", second.QuickNoteID))

	_, err = store.GetQuickNote(ctx, "agent-a", second.QuickNoteID)
	require.ErrorIs(t, err, ErrQuickNoteNotFound)
}
