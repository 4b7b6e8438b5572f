package prompt

import (
	"strings"
	"testing"

	"proposalforge/internal/types"
)

func params(level types.Level, goal string) types.Params {
	return types.Params{
		Topic:    "AI adoption in SME accounting",
		Goal:     goal,
		Audience: "faculty panel",
		Level:    level,
		Type:     types.TypeResearch,
		Language: types.LangEnglish,
	}
}

func TestWriter_LevelBands(t *testing.T) {
	cases := []struct {
		level    types.Level
		want     string
		mustMiss string
	}{
		{types.LevelUndergrad, "2-4 variables", "8-15+"},
		{types.LevelMaster, "5-8 variables", "2-4 variables"},
		{types.LevelPhD, "8-15+ variables", "2-4 variables"},
	}
	for _, c := range cases {
		p := Writer(Input{Stage: types.StageModel, Params: params(c.level, "Master's thesis")})
		if !strings.Contains(p, c.want) {
			t.Errorf("%s prompt missing %q", c.level, c.want)
		}
		if strings.Contains(p, c.mustMiss) {
			t.Errorf("%s prompt must not contain %q", c.level, c.mustMiss)
		}
	}
}

func TestWriter_MasterRequiresMediator(t *testing.T) {
	p := Writer(Input{Stage: types.StageModel, Params: params(types.LevelMaster, "Master's thesis")})
	if !strings.Contains(p, "mediator or moderator") {
		t.Fatalf("master prompt missing mediator/moderator requirement")
	}
}

func TestWriter_GoalTemplates(t *testing.T) {
	cases := []struct {
		goal string
		want string
	}{
		{"Master's thesis", "thesis chapters"},
		{"journal article", "IMRAD"},
		{"grant proposal", "Significance, Innovation"},
		{"startup pitch", "Problem, Solution, Market size"},
	}
	for _, c := range cases {
		p := Writer(Input{Stage: types.StageOutline, Params: params(types.LevelMaster, c.goal)})
		if !strings.Contains(p, c.want) {
			t.Errorf("goal %q: prompt missing %q", c.goal, c.want)
		}
	}
}

func TestWriter_Deterministic(t *testing.T) {
	in := Input{Stage: types.StageTopic, Params: params(types.LevelPhD, "journal article")}
	if Writer(in) != Writer(in) {
		t.Fatalf("Writer is not deterministic")
	}
	cin := Input{Stage: types.StageTopic, Params: in.Params, Draft: "draft"}
	if Critic(cin) != Critic(cin) {
		t.Fatalf("Critic is not deterministic")
	}
}

func TestWriter_RevisionEmbedsPriorAndCritique(t *testing.T) {
	in := Input{
		Stage:    types.StageTopic,
		Params:   params(types.LevelUndergrad, "Master's thesis"),
		Previous: "PRIOR-DRAFT-MARKER",
		Critique: "CRITIQUE-MARKER",
	}
	p := Writer(in)
	if !strings.Contains(p, "PRIOR-DRAFT-MARKER") || !strings.Contains(p, "CRITIQUE-MARKER") {
		t.Fatalf("revision prompt missing prior draft or critique")
	}
	if !strings.Contains(p, "Revise the previous draft") {
		t.Fatalf("revision prompt missing revise instruction")
	}

	initial := Writer(Input{Stage: in.Stage, Params: in.Params})
	if strings.Contains(initial, "Revise the previous draft") {
		t.Fatalf("initial prompt must not carry the revise instruction")
	}
}

func TestCritic_Personas(t *testing.T) {
	cases := []struct {
		level types.Level
		want  string
	}{
		{types.LevelUndergrad, "friendly undergraduate thesis advisor"},
		{types.LevelMaster, "strict thesis committee"},
		{types.LevelPhD, "top-tier journal"},
	}
	for _, c := range cases {
		p := Critic(Input{Stage: types.StageModel, Params: params(c.level, "thesis"), Draft: "d"})
		if !strings.Contains(p, c.want) {
			t.Errorf("%s critic missing persona %q", c.level, c.want)
		}
	}
}

func TestCritic_Criteria(t *testing.T) {
	p := Critic(Input{Stage: types.StageModel, Params: params(types.LevelMaster, "thesis"), Draft: "d"})
	for _, want := range []string{"Novelty", "Feasibility", "Citation authenticity", "Logical structure"} {
		if !strings.Contains(p, want) {
			t.Errorf("critic prompt missing criterion %q", want)
		}
	}
}

func TestLanguageDirective(t *testing.T) {
	p := params(types.LevelMaster, "thesis")
	p.Language = types.LangVietnamese
	if !strings.Contains(Writer(Input{Stage: types.StageTopic, Params: p}), "Vietnamese") {
		t.Fatalf("vi prompt missing language directive")
	}
	p.Language = types.LangEnglish
	if !strings.Contains(Writer(Input{Stage: types.StageTopic, Params: p}), "English") {
		t.Fatalf("en prompt missing language directive")
	}
}

func TestStageInstructions_DiagramStagesAskForMermaid(t *testing.T) {
	for _, st := range []types.Stage{types.StageModel, types.StageOutline} {
		p := Writer(Input{Stage: st, Params: params(types.LevelMaster, "thesis")})
		if !strings.Contains(p, "mermaid") {
			t.Errorf("stage %s prompt does not ask for a mermaid block", st)
		}
	}
	p := Writer(Input{Stage: types.StageTopic, Params: params(types.LevelMaster, "thesis")})
	if strings.Contains(p, "mermaid") {
		t.Errorf("topic stage prompt must not ask for a diagram")
	}
}
