// Package prompt builds the writer and critic prompts for the proposal
// debate. Building is pure: identical inputs always yield identical strings,
// so prompts can be asserted byte-for-byte in tests.
package prompt

import (
	"bytes"
	"fmt"

	"proposalforge/internal/types"
)

// Input carries everything a prompt depends on. Previous and Critique are
// only consulted for writer revision prompts; Draft only for critic prompts.
type Input struct {
	Stage    types.Stage
	Params   types.Params
	Previous string // writer's prior draft (revision only)
	Critique string // critic feedback to address (revision only)
	Draft    string // draft under review (critic only)
}

// Writer builds the writer-role prompt. With an empty Critique it produces
// the initial-draft prompt; otherwise a revision prompt embedding the prior
// draft and the critique.
func Writer(in Input) string {
	var b bytes.Buffer
	b.WriteString("You are an academic writing assistant drafting one stage of a ")
	if in.Params.Type == types.TypeStartup {
		b.WriteString("startup pitch")
	} else {
		b.WriteString("research proposal")
	}
	b.WriteString(".\n\n")

	writeContext(&b, in.Params)
	b.WriteString("\n[TASK]\n")
	b.WriteString(stageInstruction(in.Stage, in.Params.Type))
	b.WriteString("\n\n[COMPLEXITY]\n")
	b.WriteString(levelRequirement(in.Params.Level))
	b.WriteString("\n\n[DOCUMENT STRUCTURE]\n")
	b.WriteString(goalTemplate(in.Params.Goal))

	if in.Critique != "" {
		b.WriteString("\n\n[PREVIOUS DRAFT]\n")
		b.WriteString(in.Previous)
		b.WriteString("\n\n[REVIEWER FEEDBACK]\n")
		b.WriteString(in.Critique)
		b.WriteString("\n\nRevise the previous draft to address every point of the feedback. " +
			"Keep what the reviewer did not object to. Output the full revised draft, not a diff.")
	}

	b.WriteString("\n\n")
	b.WriteString(languageDirective(in.Params.Language))
	return b.String()
}

// Critic builds the critic-role prompt for the given draft. The persona is
// scaled to the academic level.
func Critic(in Input) string {
	var b bytes.Buffer
	b.WriteString(criticPersona(in.Params.Level))
	b.WriteString("\n\n")
	writeContext(&b, in.Params)
	b.WriteString("\n[DRAFT UNDER REVIEW]\n")
	b.WriteString(in.Draft)
	b.WriteString("\n\n[EVALUATION CRITERIA]\n" +
		"1. Novelty: does the work add something beyond existing literature?\n" +
		"2. Feasibility: can this realistically be executed at the stated level?\n" +
		"3. Citation authenticity: flag any reference that looks fabricated or unverifiable.\n" +
		"4. Logical structure: are the arguments ordered and internally consistent?\n")
	b.WriteString("\nGive concrete, numbered feedback the writer can act on. " +
		"Do not rewrite the draft yourself.")
	b.WriteString("\n\n")
	b.WriteString(languageDirective(in.Params.Language))
	return b.String()
}

func writeContext(b *bytes.Buffer, p types.Params) {
	fmt.Fprintf(b, "[PROJECT]\nTopic: %s\nGoal: %s\nAudience: %s\nAcademic level: %s\n",
		p.Topic, p.Goal, p.Audience, p.Level)
}

func stageInstruction(stage types.Stage, pt types.ProjectType) string {
	switch stage {
	case types.StageTopic:
		return "Refine the topic into a precise, researchable statement. Provide: " +
			"(a) the refined topic in one sentence, (b) the research gap it addresses, " +
			"(c) 2-3 candidate research questions, (d) the expected contribution."
	case types.StageModel:
		return "Construct the theoretical model for the topic. Name every construct, " +
			"define each hypothesized relationship, and include the model as a Mermaid " +
			"diagram in a fenced code block tagged `mermaid` (graph LR, one edge per hypothesis)."
	case types.StageOutline:
		return "Produce a complete APA-style outline of the final document, with numbered " +
			"sections and one-sentence summaries per section. Include the document flow as a " +
			"Mermaid diagram in a fenced code block tagged `mermaid`."
	case types.StageGTM:
		return "Design the go-to-market strategy: target segment, positioning, pricing logic, " +
			"acquisition channels with expected CAC, and a 12-month rollout sequence."
	case types.StageSurvey:
		if pt == types.TypeStartup {
			return "Design the customer validation survey: screening questions, construct " +
				"measurement items on 5-point Likert scales, and demographic items. State which " +
				"construct each item measures."
		}
		return "Design the survey instrument for the theoretical model: measurement items per " +
			"construct on 5-point Likert scales, adapted from established scales where possible " +
			"(cite the source scale), plus screening and demographic items."
	default:
		return "Draft this stage of the proposal."
	}
}

func levelRequirement(level types.Level) string {
	switch level {
	case types.LevelMaster:
		return "Master's level: the model must contain 5-8 variables and include at least " +
			"one mediator or moderator. Hypotheses must be grounded in named theories."
	case types.LevelPhD:
		return "Doctoral level: the model must contain 8-15+ variables in a multi-layer " +
			"structure (antecedents, mechanisms, outcomes, boundary conditions). Every path " +
			"needs explicit theoretical justification; identify the theory being extended."
	default:
		return "Undergraduate level: keep the model simple, 2-4 variables with direct " +
			"relationships only. Favor clarity over completeness."
	}
}

func goalTemplate(goal string) string {
	switch classifyGoal(goal) {
	case goalJournal:
		return "Structure for a journal article (IMRAD): Introduction, Methods, Results " +
			"(projected), And Discussion, with an abstract of at most 250 words."
	case goalGrant:
		return "Structure for a grant proposal: Significance, Innovation, Approach, " +
			"Timeline, Budget justification."
	case goalPitch:
		return "Structure for a startup pitch: Problem, Solution, Market size, Business " +
			"model, Traction, Team, Ask."
	default:
		return "Structure as thesis chapters: 1 Introduction, 2 Literature review, " +
			"3 Methodology, 4 Expected results, 5 Contribution and limitations."
	}
}

func languageDirective(lang types.Language) string {
	if lang == types.LangVietnamese {
		return "Write the entire output in Vietnamese."
	}
	return "Write the entire output in English."
}

func criticPersona(level types.Level) string {
	switch level {
	case types.LevelMaster:
		return "You are a strict thesis committee member. You hold drafts to the standard " +
			"of a defensible Master's thesis and reject hand-waving."
	case types.LevelPhD:
		return "You are a reviewer for a top-tier journal. You evaluate drafts as you would " +
			"a submission: assume nothing, demand rigor, and identify fatal flaws first."
	default:
		return "You are a friendly undergraduate thesis advisor. You point out problems " +
			"clearly but keep the feedback encouraging and within reach of the student."
	}
}
