package gate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/toolbox"

	"github.com/stewardai/steward/model/conversation"
	"github.com/stewardai/steward/model/tool"
)

// formatApprovalCard renders the markdown surfaced to the reviewer: the
// ambient run context (e.g. the originating email) followed by the proposed
// tool call and its arguments.
func formatApprovalCard(runContext map[string]interface{}, call *tool.Call, allowedActions []string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("# Approval required: %v\n\n", call.Name))

	if len(runContext) > 0 {
		builder.WriteString("**Context**\n\n")
		for _, key := range sortedKeys(runContext) {
			builder.WriteString(fmt.Sprintf("- %v: %v\n", key, runContext[key]))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("**Proposed arguments**\n\n")
	builder.WriteString("```json\n")
	builder.WriteString(renderArgs(call.Args))
	builder.WriteString("\n```\n")

	if len(allowedActions) > 0 {
		builder.WriteString(fmt.Sprintf("\nAllowed actions: %v\n", strings.Join(allowedActions, ", ")))
	}
	return builder.String()
}

// renderArgs pretty-prints an argument map with empty entries pruned.
func renderArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return "{}"
	}
	pruned := map[string]interface{}{}
	for k, v := range args {
		pruned[k] = v
	}
	pruned = toolbox.DeleteEmptyKeys(pruned)
	data, err := json.MarshalIndent(pruned, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

// renderArgsDiff produces a unified diff of the initial vs edited arguments,
// used to frame an Edit decision as a correction signal.
func renderArgsDiff(toolName string, initial, edited map[string]interface{}) string {
	before, after := renderArgs(initial), renderArgs(edited)
	if before == after {
		return ""
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: toolName + " (proposed)",
		ToFile:   toolName + " (edited)",
		Context:  3,
	}
	diff, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return fmt.Sprintf("proposed: %v\nedited: %v", before, after)
	}
	return diff
}

// renderTranscript flattens a conversation suffix into plain text for the
// synthesizer - the merge needs conversational context, not just raw args.
func renderTranscript(messages []*conversation.Message) string {
	var builder strings.Builder
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := msg.Content
		if content == "" && len(msg.ToolCalls) > 0 {
			var calls []string
			for _, call := range msg.ToolCalls {
				calls = append(calls, fmt.Sprintf("%v(%v)", call.Name, renderArgs(call.Args)))
			}
			content = "proposed: " + strings.Join(calls, ", ")
		}
		builder.WriteString(fmt.Sprintf("%v: %v\n", msg.Role, content))
	}
	return builder.String()
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
