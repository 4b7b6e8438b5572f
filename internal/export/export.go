package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"proposalforge/internal/gateway/repository/artifact"
	"proposalforge/internal/gateway/repository/projectstore"
	"proposalforge/internal/types"
	"proposalforge/internal/workflow"
)

// DocumentName is the path of the assembled bundle inside the artifact store.
const DocumentName = "proposal.md"

var stageTitles = map[types.Stage]string{
	types.StageTopic:   "Topic & Research Question",
	types.StageModel:   "Conceptual Model",
	types.StageOutline: "Outline",
	types.StageGTM:     "Go-to-Market Plan",
	types.StageSurvey:  "Survey Instrument",
}

// Assembler turns the finalized sections of a completed project into a
// markdown bundle and stores it as downloadable artifacts. Binary formats
// (Word, PDF) belong to a downstream collaborator and are not produced here.
type Assembler struct {
	artifacts artifact.Store
	verifier  CitationVerifier
	now       func() time.Time
}

func NewAssembler(store artifact.Store, verifier CitationVerifier) *Assembler {
	return &Assembler{
		artifacts: store,
		verifier:  verifier,
		now:       time.Now,
	}
}

// Result describes one assembled export.
type Result struct {
	Paths     []string                  `json:"paths"`
	Citations map[string]CitationResult `json:"citations,omitempty"`
}

// Assemble writes per-section files plus a combined document for the given
// record. Every stage of the project's workflow must be finalized with
// non-empty text; a partial project is rejected.
func (a *Assembler) Assemble(ctx context.Context, rec projectstore.Record) (Result, error) {
	if a == nil || a.artifacts == nil {
		return Result{}, fmt.Errorf("artifact store is not configured")
	}

	order := workflow.Order(rec.Params.Type)
	for _, stage := range order {
		fin, ok := rec.Finalized[stage]
		if !ok || types.Sanitize(fin.Text) == "" {
			return Result{}, fmt.Errorf("stage %s is not finalized", stage)
		}
	}

	paths := make([]string, 0, len(order)*2+1)
	var doc bytes.Buffer
	fmt.Fprintf(&doc, "# %s\n\n", headline(rec.Params))
	fmt.Fprintf(&doc, "_Generated %s_\n", a.now().UTC().Format(time.RFC3339))

	for _, stage := range order {
		fin := rec.Finalized[stage]
		title := stageTitles[stage]

		fmt.Fprintf(&doc, "\n## %s\n\n%s\n", title, strings.TrimSpace(fin.Text))
		if fin.Diagram != "" {
			fmt.Fprintf(&doc, "\n```mermaid\n%s\n```\n", strings.TrimSpace(fin.Diagram))
		}

		sectionPath := fmt.Sprintf("sections/%s.md", strings.ToLower(string(stage)))
		section := fmt.Sprintf("## %s\n\n%s\n", title, strings.TrimSpace(fin.Text))
		if err := a.artifacts.Put(ctx, rec.SessionID, sectionPath, []byte(section)); err != nil {
			return Result{}, fmt.Errorf("store section %s: %w", stage, err)
		}
		paths = append(paths, sectionPath)

		if fin.Diagram != "" {
			diagramPath := fmt.Sprintf("diagrams/%s.mmd", strings.ToLower(string(stage)))
			if err := a.artifacts.Put(ctx, rec.SessionID, diagramPath, []byte(strings.TrimSpace(fin.Diagram)+"\n")); err != nil {
				return Result{}, fmt.Errorf("store diagram %s: %w", stage, err)
			}
			paths = append(paths, diagramPath)
		}
	}

	if err := a.artifacts.Put(ctx, rec.SessionID, DocumentName, doc.Bytes()); err != nil {
		return Result{}, fmt.Errorf("store document: %w", err)
	}
	paths = append(paths, DocumentName)

	res := Result{Paths: paths}
	if survey, ok := rec.Finalized[types.StageSurvey]; ok {
		res.Citations = VerifyCitations(ctx, a.verifier, survey.Text)
	}
	return res, nil
}

func headline(p types.Params) string {
	topic := strings.TrimSpace(p.Topic)
	if topic == "" {
		topic = "Untitled Project"
	}
	if p.Type == types.TypeStartup {
		return topic + " — Startup Pitch"
	}
	return topic + " — Research Proposal"
}
