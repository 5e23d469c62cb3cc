package export

import (
	"context"
	"unicode/utf8"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/pkg/notion"
)

// notionPropMatchID is the rich-text property used for dedup lookups.
const notionPropMatchID = "Match ID"

// NotionSink writes confirmed matches as pages in a Notion database. Each
// page carries the match ID in a rich-text property; an existing page with
// the same match ID means the record was already exported.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a sink over the configured match database.
func NewNotionSink(client notion.Client, cfg config.NotionConfig) *NotionSink {
	return &NotionSink{client: client, dbID: cfg.MatchDB}
}

func (s *NotionSink) Name() string { return "notion" }

// Export creates a page for the match unless one already exists.
func (s *NotionSink) Export(ctx context.Context, rec Record) (bool, error) {
	exists, err := s.pageExists(ctx, rec.Match.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.dbID),
		},
		Properties: s.properties(rec),
	}
	if _, err := s.client.CreatePage(ctx, req); err != nil {
		return false, eris.Wrap(err, "export: create notion page")
	}
	return true, nil
}

func (s *NotionSink) pageExists(ctx context.Context, matchID string) (bool, error) {
	resp, err := s.client.QueryDatabase(ctx, s.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: notionPropMatchID,
			RichText: &notionapi.TextFilterCondition{
				Equals: matchID,
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return false, eris.Wrap(err, "export: query notion matches")
	}
	return len(resp.Results) > 0, nil
}

func (s *NotionSink) properties(rec Record) notionapi.Properties {
	title := rec.Match.ID
	if rec.SAM != nil && rec.SAM.Title != "" {
		title = rec.SAM.Title
	}

	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(title),
		},
		notionPropMatchID: notionapi.RichTextProperty{
			RichText: richText(rec.Match.ID),
		},
		"AI Score": notionapi.NumberProperty{
			Number: rec.Match.AIMatchScore,
		},
		"Match Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: orUnknown(string(rec.Match.MatchType))},
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Match.Status)},
		},
	}

	if rec.SAM != nil {
		props["Notice ID"] = notionapi.RichTextProperty{RichText: richText(rec.SAM.NoticeID)}
		if rec.SAM.SolicitationNumber != "" {
			props["Solicitation"] = notionapi.RichTextProperty{RichText: richText(rec.SAM.SolicitationNumber)}
		}
		if rec.SAM.Department != "" {
			props["Agency"] = notionapi.RichTextProperty{RichText: richText(rec.SAM.Department)}
		}
		if rec.SAM.SAMLink != "" {
			props["SAM Link"] = notionapi.URLProperty{URL: rec.SAM.SAMLink}
		}
	}
	if rec.GovWin != nil {
		props["GovWin ID"] = notionapi.RichTextProperty{RichText: richText(rec.GovWin.GovWinID)}
	}
	if rec.Match.AIReasoning != "" {
		props["Reasoning"] = notionapi.RichTextProperty{RichText: richText(clip(rec.Match.AIReasoning, 1900))}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// clip cuts s to at most n bytes without splitting a UTF-8 rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
