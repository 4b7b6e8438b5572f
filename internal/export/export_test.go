package export

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"proposalforge/internal/gateway/repository/artifact"
	"proposalforge/internal/gateway/repository/projectstore"
	"proposalforge/internal/types"
)

type fakeVerifier struct {
	calls []string
	byDOI map[string]CitationResult
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, doi string) (CitationResult, error) {
	f.calls = append(f.calls, doi)
	if f.err != nil {
		return CitationResult{}, f.err
	}
	return f.byDOI[doi], nil
}

func completedRecord(pt types.ProjectType) projectstore.Record {
	rec := projectstore.Record{
		SessionID: "sess-export",
		UserID:    "user-1",
		Params: types.Params{
			Topic: "Adaptive Tutoring",
			Goal:  "master thesis",
			Level: types.LevelMaster,
			Type:  pt,
		},
		Finalized: map[types.Stage]types.Finalized{
			types.StageTopic:   {Text: "Topic text"},
			types.StageModel:   {Text: "Model text", Diagram: "graph TD\nA-->B"},
			types.StageOutline: {Text: "Outline text"},
			types.StageSurvey:  {Text: "Survey text citing doi 10.1000/xyz123 and 10.1000/xyz123 again."},
		},
	}
	if pt == types.TypeStartup {
		rec.Finalized[types.StageGTM] = types.Finalized{Text: "GTM text"}
	}
	return rec
}

func TestAssembleResearchBundle(t *testing.T) {
	store := artifact.NewMemoryStore()
	a := NewAssembler(store, nil)

	res, err := a.Assemble(context.Background(), completedRecord(types.TypeResearch))
	require.NoError(t, err)

	require.Contains(t, res.Paths, "proposal.md")
	require.Contains(t, res.Paths, "sections/1_topic.md")
	require.Contains(t, res.Paths, "diagrams/2_model.mmd")
	require.NotContains(t, res.Paths, "sections/5_gtm.md")

	doc, err := store.Get(context.Background(), "sess-export", "proposal.md")
	require.NoError(t, err)
	text := string(doc)
	require.Contains(t, text, "# Adaptive Tutoring — Research Proposal")
	require.Contains(t, text, "## Conceptual Model")
	require.Contains(t, text, "```mermaid")
	require.NotContains(t, text, "Go-to-Market")

	// Sections appear in workflow order inside the combined document.
	require.Less(t, strings.Index(text, "## Outline"), strings.Index(text, "## Survey Instrument"))
}

func TestAssembleStartupIncludesGTM(t *testing.T) {
	store := artifact.NewMemoryStore()
	a := NewAssembler(store, nil)

	res, err := a.Assemble(context.Background(), completedRecord(types.TypeStartup))
	require.NoError(t, err)
	require.Contains(t, res.Paths, "sections/5_gtm.md")

	doc, err := store.Get(context.Background(), "sess-export", "proposal.md")
	require.NoError(t, err)
	text := string(doc)
	require.Contains(t, text, "Startup Pitch")
	// GTM comes before the survey in the startup workflow.
	require.Less(t, strings.Index(text, "## Go-to-Market Plan"), strings.Index(text, "## Survey Instrument"))
}

func TestAssembleRejectsPartialProject(t *testing.T) {
	store := artifact.NewMemoryStore()
	a := NewAssembler(store, nil)

	rec := completedRecord(types.TypeResearch)
	rec.Finalized[types.StageSurvey] = types.Finalized{Text: "   \n\t "}

	_, err := a.Assemble(context.Background(), rec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "4_SURVEY")

	paths, err := store.List(context.Background(), "sess-export")
	require.NoError(t, err)
	require.NotContains(t, paths, "proposal.md")
}

func TestAssembleVerifiesSurveyCitations(t *testing.T) {
	store := artifact.NewMemoryStore()
	v := &fakeVerifier{byDOI: map[string]CitationResult{
		"10.1000/xyz123": {Valid: true, Title: "A Paper", Year: 2021},
	}}
	a := NewAssembler(store, v)

	res, err := a.Assemble(context.Background(), completedRecord(types.TypeResearch))
	require.NoError(t, err)
	require.Equal(t, []string{"10.1000/xyz123"}, v.calls)
	require.True(t, res.Citations["10.1000/xyz123"].Valid)
	require.Equal(t, "A Paper", res.Citations["10.1000/xyz123"].Title)
}

func TestExtractDOIs(t *testing.T) {
	text := "See 10.1038/nphys1170, also https://doi.org/10.1000/abc.def; and 10.1038/nphys1170."
	got := ExtractDOIs(text)
	require.Equal(t, []string{"10.1038/nphys1170", "10.1000/abc.def"}, got)

	require.Nil(t, ExtractDOIs("no identifiers here"))
}

func TestVerifyCitationsLookupFailureMarksInvalid(t *testing.T) {
	v := &fakeVerifier{err: context.DeadlineExceeded}
	got := VerifyCitations(context.Background(), v, "ref 10.1000/broken1")
	require.Len(t, got, 1)
	require.False(t, got["10.1000/broken1"].Valid)
}
