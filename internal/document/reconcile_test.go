// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import (
	"testing"

	"github.com/morganforge/grokwire/internal/segment"
)

// reconcileText is a test helper running the full segmentation +
// reconciliation pipeline over accumulated text.
func reconcileText(t *testing.T, text string, streaming bool, elapsed int, state *RenderState) *Node {
	t.Helper()
	in := Input{
		Segments:       segment.Split(text),
		Streaming:      streaming,
		ElapsedSeconds: elapsed,
	}
	return Reconcile(in, state, DefaultPolicy())
}

// findKind returns all nodes of a kind in depth-first order.
func findKind(root *Node, kind Kind) []*Node {
	var out []*Node
	root.Walk(func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// =============================================================================
// RECONCILE TESTS
// =============================================================================

func TestReconcile_PlainAndThink(t *testing.T) {
	doc := reconcileText(t, "Hello <think>pondering</think>World", false, 3, NewRenderState())

	thinks := findKind(doc, KindThink)
	if len(thinks) != 1 {
		t.Fatalf("think nodes = %d, want 1", len(thinks))
	}
	if thinks[0].Key != "t0" {
		t.Errorf("Key = %q, want t0", thinks[0].Key)
	}
	if thinks[0].Title != "Thought for 3s" {
		t.Errorf("Title = %q", thinks[0].Title)
	}

	if paras := findKind(doc, KindParagraph); len(paras) < 2 {
		t.Errorf("paragraphs = %d, want plain text before and after the span", len(paras))
	}
}

func TestReconcile_SingleUntitledSectionRendersFlat(t *testing.T) {
	doc := reconcileText(t, "<think>just text, no agents", true, ElapsedUnknown, NewRenderState())

	if sections := findKind(doc, KindAgentSection); len(sections) != 0 {
		t.Errorf("agent sections = %d, want 0 for a single untitled section", len(sections))
	}
	thinks := findKind(doc, KindThink)
	if len(thinks) != 1 || len(thinks[0].Children) == 0 {
		t.Fatalf("think body missing: %+v", thinks)
	}
	if thinks[0].Title != "Thinking…" {
		t.Errorf("Title = %q, want streaming label", thinks[0].Title)
	}
}

func TestReconcile_AgentSectionsAndGroups(t *testing.T) {
	body := "Grok Leader\nplanning\nAgent1\n[w1][search] query docs\nfound it\n[w2][browse] open page\n[w1][search] refine"
	doc := reconcileText(t, "<think>"+body+"</think>", false, 5, NewRenderState())

	sections := findKind(doc, KindAgentSection)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if sections[0].Title != "Grok Leader" || sections[1].Title != "Agent1" {
		t.Errorf("titles = %q, %q", sections[0].Title, sections[1].Title)
	}

	groups := findKind(doc, KindRolloutGroup)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (w1, w2)", len(groups))
	}
	if groups[0].GroupID != "w1" || groups[1].GroupID != "w2" {
		t.Errorf("group order = %q, %q, want first-appearance w1, w2", groups[0].GroupID, groups[1].GroupID)
	}
	if groups[0].Title != "🔍 Search · w1" {
		t.Errorf("group title = %q", groups[0].Title)
	}
}

func TestReconcile_SectionPreambleRendersBeforeGroups(t *testing.T) {
	body := "Agent1\nsetting up the run\n[w1][search] query docs"
	doc := reconcileText(t, "<think>"+body+"</think>", false, 2, NewRenderState())

	sections := findKind(doc, KindAgentSection)
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	kids := sections[0].Children
	if len(kids) < 2 {
		t.Fatalf("children = %d, want preamble then group", len(kids))
	}
	if kids[0].Kind == KindRolloutGroup {
		t.Error("preamble dropped: first child is already a rollout group")
	}
	if groups := findKind(sections[0], KindRolloutGroup); len(groups) != 1 {
		t.Errorf("groups = %d, want 1", len(groups))
	}
}

func TestReconcile_SectionDefaultsAfterStreaming(t *testing.T) {
	body := "Agent1\none\nAgent2\ntwo"
	doc := reconcileText(t, "<think>"+body+"</think>", false, 2, NewRenderState())

	sections := findKind(doc, KindAgentSection)
	if len(sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(sections))
	}
	if !sections[0].Open {
		t.Error("first section should default open")
	}
	if sections[1].Open {
		t.Error("later sections should default closed once streaming ends")
	}
}

func TestReconcile_OpenAllWhileStreaming(t *testing.T) {
	body := "Agent1\none\nAgent2\ntwo"
	doc := reconcileText(t, "<think>"+body, true, ElapsedUnknown, NewRenderState())

	for i, sec := range findKind(doc, KindAgentSection) {
		if !sec.Open {
			t.Errorf("section %d should be open while streaming", i)
		}
	}
}

func TestReconcile_OneShotAutoCollapse(t *testing.T) {
	text := "<think>reasoning</think>answer"
	state := NewRenderState()

	// While streaming: open by default.
	doc := reconcileText(t, text, true, ElapsedUnknown, state)
	if think := findKind(doc, KindThink)[0]; !think.Open {
		t.Fatal("think should default open while elapsed is unknown")
	}
	if state.AutoCollapsedOnce {
		t.Fatal("AutoCollapsedOnce must not trip before elapsed is known")
	}

	// Elapsed becomes known: force-collapsed on exactly this render.
	doc = reconcileText(t, text, false, 4, state)
	if think := findKind(doc, KindThink)[0]; think.Open {
		t.Fatal("think must collapse the instant elapsed becomes known")
	}
	if !state.AutoCollapsedOnce {
		t.Fatal("AutoCollapsedOnce should now be set")
	}

	// The user re-opens it: that state must survive later renders and
	// never be auto-collapsed a second time.
	state.SetOpen("t0", true)
	doc = reconcileText(t, text, false, 4, state)
	if think := findKind(doc, KindThink)[0]; !think.Open {
		t.Fatal("explicit user state must win after the one-shot collapse")
	}
	doc = reconcileText(t, text, false, 4, state)
	if think := findKind(doc, KindThink)[0]; !think.Open {
		t.Fatal("state must remain stable on every later render")
	}
}

func TestReconcile_IdempotentRender(t *testing.T) {
	text := "# Title\n<think>Agent1\n[a][search] q</think>done\n\n- x\n- y"
	state := NewRenderState()

	a := reconcileText(t, text, false, 2, state)
	b := reconcileText(t, text, false, 2, state)

	if !nodeEqual(a, b) {
		t.Error("re-render with identical input and state must be structurally identical")
	}
}

func TestReconcile_DisclosureToggleSurvivesRerender(t *testing.T) {
	body := "Agent1\n[a][search] q\nAgent2\ntext"
	text := "<think>" + body + "</think>"
	state := NewRenderState()

	doc := reconcileText(t, text, false, 2, state)
	sections := findKind(doc, KindAgentSection)
	key := sections[1].Key

	// User opens the second section.
	state.SetOpen(key, true)
	doc = reconcileText(t, text, false, 2, state)
	if sec := findKind(doc, KindAgentSection)[1]; !sec.Open {
		t.Error("recorded disclosure state must win over policy defaults")
	}
}

// =============================================================================
// IMAGE GRID PROMOTION TESTS
// =============================================================================

func imageLine(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += " "
		}
		s += "![i](http://x/" + string(rune('a'+i)) + ".png)"
	}
	return s
}

func TestGridPromotion_FiveImagesCapAtFourColumns(t *testing.T) {
	doc := reconcileText(t, imageLine(5), false, ElapsedUnknown, NewRenderState())

	grids := findKind(doc, KindImageGrid)
	if len(grids) != 1 {
		t.Fatalf("grids = %d, want 1", len(grids))
	}
	if grids[0].Columns != 4 {
		t.Errorf("Columns = %d, want capped at 4", grids[0].Columns)
	}
	if len(grids[0].Children) != 5 {
		t.Errorf("grid children = %d, want all 5 images", len(grids[0].Children))
	}
}

func TestGridPromotion_TwoImagesTwoColumns(t *testing.T) {
	doc := reconcileText(t, imageLine(2), false, ElapsedUnknown, NewRenderState())

	grids := findKind(doc, KindImageGrid)
	if len(grids) != 1 || grids[0].Columns != 2 {
		t.Fatalf("grids = %+v, want one 2-column grid", grids)
	}
}

func TestGridPromotion_SingleImageUntouched(t *testing.T) {
	doc := reconcileText(t, imageLine(1), false, ElapsedUnknown, NewRenderState())

	if grids := findKind(doc, KindImageGrid); len(grids) != 0 {
		t.Fatalf("grids = %d, want none for a single image", len(grids))
	}
	if imgs := findKind(doc, KindImage); len(imgs) != 1 {
		t.Errorf("images = %d, want the image preserved", len(imgs))
	}
}

func TestGridPromotion_AdjacentImageParagraphsMerge(t *testing.T) {
	// Images in consecutive paragraphs separated by a blank line still
	// form one run.
	text := "![a](http://x/a.png)\n\n![b](http://x/b.png)"
	doc := reconcileText(t, text, false, ElapsedUnknown, NewRenderState())

	grids := findKind(doc, KindImageGrid)
	if len(grids) != 1 || grids[0].Columns != 2 {
		t.Fatalf("grids = %+v, want one 2-column grid", grids)
	}
}

func TestGridPromotion_TextBreaksRun(t *testing.T) {
	text := "![a](http://x/a.png) and some words ![b](http://x/b.png)"
	doc := reconcileText(t, text, false, ElapsedUnknown, NewRenderState())

	if grids := findKind(doc, KindImageGrid); len(grids) != 0 {
		t.Fatalf("grids = %d, text between images must break the run", len(grids))
	}
}

func TestGridPromotion_LinkWrappedImageCounts(t *testing.T) {
	text := "[![a](http://x/a.png)](http://x/full) ![b](http://x/b.png)"
	doc := reconcileText(t, text, false, ElapsedUnknown, NewRenderState())

	grids := findKind(doc, KindImageGrid)
	if len(grids) != 1 {
		t.Fatalf("grids = %d, want 1 (link-wrapped image is standalone)", len(grids))
	}
	if len(grids[0].Children) != 2 {
		t.Errorf("grid children = %d, want 2", len(grids[0].Children))
	}
}

func TestGridPromotion_InsideDisclosureBody(t *testing.T) {
	text := "<think>" + imageLine(3) + "</think>"
	doc := reconcileText(t, text, false, 1, NewRenderState())

	grids := findKind(doc, KindImageGrid)
	if len(grids) != 1 || grids[0].Columns != 3 {
		t.Fatalf("grids = %+v, want one 3-column grid inside the disclosure", grids)
	}
}
