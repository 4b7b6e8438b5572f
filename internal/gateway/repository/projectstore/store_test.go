package projectstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proposalforge/internal/types"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "projects.json"))
}

func strPtr(s string) *string             { return &s }
func stagePtr(s types.Stage) *types.Stage { return &s }

func TestSave_MergePatch(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	params := types.Params{Topic: "t", Goal: "thesis", Level: types.LevelMaster, Type: types.TypeResearch}
	require.NoError(t, s.Save(ctx, "sess-1", Patch{
		UserID: strPtr("user-1"),
		Params: &params,
		Stage:  stagePtr(types.StageTopic),
	}))

	transcript := []types.Message{
		{Role: types.RoleWriter, Content: "draft", Round: 1, Timestamp: time.Now().UTC()},
	}
	require.NoError(t, s.Save(ctx, "sess-1", Patch{Transcript: &transcript}))

	rec, ok, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	// Patched field updated, everything else preserved.
	require.Len(t, rec.Transcript, 1)
	require.Equal(t, "draft", rec.Transcript[0].Content)
	require.Equal(t, "user-1", rec.UserID)
	require.Equal(t, types.StageTopic, rec.Stage)
	require.Equal(t, params, rec.Params)
	require.False(t, rec.CreatedAt.IsZero())
}

func TestSave_FinalizedMergesByStage(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", Patch{
		Finalized: map[types.Stage]types.Finalized{
			types.StageTopic: {Text: "topic final"},
		},
	}))
	require.NoError(t, s.Save(ctx, "sess-1", Patch{
		Finalized: map[types.Stage]types.Finalized{
			types.StageModel: {Text: "model final", Diagram: "graph LR\nA-->B"},
		},
	}))

	rec, ok, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "topic final", rec.Finalized[types.StageTopic].Text)
	require.Equal(t, "model final", rec.Finalized[types.StageModel].Text)
	require.Equal(t, "graph LR\nA-->B", rec.Finalized[types.StageModel].Diagram)
}

func TestLoad_NotFound(t *testing.T) {
	s := newFileStore(t)
	_, ok, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStore_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "projects.json")

	s := New(path)
	require.NoError(t, s.Save(ctx, "sess-1", Patch{UserID: strPtr("u")}))

	reopened := New(path)
	rec, ok, err := reopened.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u", rec.UserID)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	require.NoError(t, s.Save(ctx, "a", Patch{UserID: strPtr("u1")}))
	require.NoError(t, s.Save(ctx, "b", Patch{UserID: strPtr("u1")}))
	require.NoError(t, s.Save(ctx, "c", Patch{UserID: strPtr("u2")}))

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, s.Delete(ctx, "a"))
	list, err = s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, ok, err := s.Load(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}
