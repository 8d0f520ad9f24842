package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/psptrack/internal/domain/defect"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `psptrack records Personal Software Process (PSP) time and defect data.

Core concepts:
- Phase: planning, design, code, compile, test or postmortem. Time is counted against the selected phase.
- Stopwatch: idle, running or interrupted. While running, each second adds to the phase's actual time; while interrupted, to its interruption time.
- Defect: an entry in the defect recording log with inject/remove phase and fix time. The selected defect accrues fix time while the stopwatch runs.
- Event log: every transition and defect action is appended to a text log.

Typical workflow:
1) set_plan for each phase you intend to work in.
2) psp_start(phase) when work begins; select_phase when you move on.
3) psp_pause when interrupted; psp_pause(comment) again when you return.
4) report_defect for compiler or test failures; select_defect while fixing; check_defect when fixed.
5) psp_stop at the end; plan_summary to compare plan and actual.

Docs:
- psp://docs/index
- psp://docs/defect-types
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "psp://docs/index",
		Name:        "docs_index",
		Title:       "psptrack docs index",
		Description: "How the stopwatch counts time and what each tool records.",
		Content: `# psptrack

## Stopwatch

| State | psp_pause | psp_stop |
|---|---|---|
| idle | error | error |
| running | becomes interrupted, logs "pausing" | becomes idle, logs "stop" |
| interrupted | records the comment and the interruption length, logs "resuming" | resumes first, then stops |

psp_start only works while idle.

## Time values

set_plan and create_defect(fix_time) accept a number with an optional unit:
"90" or "90 s" (seconds), "45m", "1.5h", "1,5 h". Unknown units count as seconds.

## Event log

Each line reads ` + "`<timestamp> <uuid> <phase> <event> <comment>`" + `, with "-" for an empty uuid or phase.
`,
	},
	{
		URI:         "psp://docs/defect-types",
		Name:        "defect_types",
		Title:       "PSP defect types",
		Description: "Defect type codes accepted by create_defect and report_defect.",
		Content:     defectTypesDoc(),
	},
}

func defectTypesDoc() string {
	var b strings.Builder
	b.WriteString("# Defect types\n\n| Code | Name |\n|---|---|\n")
	for _, t := range defect.Types() {
		fmt.Fprintf(&b, "| %d | %s |\n", int(t), t.Name())
	}
	b.WriteString("\nThe default is 20 (Syntax). Either the code or the name may be passed.\n")
	return b.String()
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
