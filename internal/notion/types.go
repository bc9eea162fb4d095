package notion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jasoncui/notion-blog/internal/models"
)

// Wire types for the Notion REST API (version 2022-06-28). Only the fields
// this server reads are decoded; everything else is ignored.

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type richTextObject struct {
	PlainText   string `json:"plain_text"`
	Href        string `json:"href"`
	Annotations struct {
		Bold          bool   `json:"bold"`
		Italic        bool   `json:"italic"`
		Strikethrough bool   `json:"strikethrough"`
		Underline     bool   `json:"underline"`
		Code          bool   `json:"code"`
		Color         string `json:"color"`
	} `json:"annotations"`
	Text struct {
		Content string `json:"content"`
		Link    *struct {
			URL string `json:"url"`
		} `json:"link"`
	} `json:"text"`
}

func (r richTextObject) toRun() models.TextRun {
	run := models.TextRun{
		Content: r.Text.Content,
		Annotations: models.Annotations{
			Bold:          r.Annotations.Bold,
			Italic:        r.Annotations.Italic,
			Strikethrough: r.Annotations.Strikethrough,
			Underline:     r.Annotations.Underline,
			Code:          r.Annotations.Code,
			Color:         r.Annotations.Color,
		},
	}
	if run.Content == "" {
		run.Content = r.PlainText
	}
	if run.Annotations.Color == "" {
		run.Annotations.Color = "default"
	}
	if r.Text.Link != nil {
		run.Link = r.Text.Link.URL
	} else if r.Href != "" {
		run.Link = r.Href
	}
	return run
}

func toRuns(objs []richTextObject) []models.TextRun {
	if len(objs) == 0 {
		return nil
	}
	runs := make([]models.TextRun, 0, len(objs))
	for _, o := range objs {
		runs = append(runs, o.toRun())
	}
	return runs
}

func plainText(objs []richTextObject) string {
	var sb strings.Builder
	for _, o := range objs {
		if o.PlainText != "" {
			sb.WriteString(o.PlainText)
		} else {
			sb.WriteString(o.Text.Content)
		}
	}
	return sb.String()
}

// fileOrExternal is Notion's two-variant source descriptor for images and
// file attachments.
type fileOrExternal struct {
	Type     string `json:"type"`
	External struct {
		URL string `json:"url"`
	} `json:"external"`
	File struct {
		URL        string    `json:"url"`
		ExpiryTime time.Time `json:"expiry_time"`
	} `json:"file"`
}

func (f fileOrExternal) url() string {
	if f.Type == "external" {
		return f.External.URL
	}
	return f.File.URL
}

type blockObject struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	HasChildren bool            `json:"has_children"`
	Paragraph   *richTextBlock  `json:"paragraph"`
	Heading1    *richTextBlock  `json:"heading_1"`
	Heading2    *richTextBlock  `json:"heading_2"`
	Heading3    *richTextBlock  `json:"heading_3"`
	Bulleted    *richTextBlock  `json:"bulleted_list_item"`
	Numbered    *richTextBlock  `json:"numbered_list_item"`
	ToDo        *toDoBlock      `json:"to_do"`
	Toggle      *richTextBlock  `json:"toggle"`
	ChildPage   *childPageBlock `json:"child_page"`
	Image       *mediaBlock     `json:"image"`
	Quote       *richTextBlock  `json:"quote"`
	Code        *codeBlock      `json:"code"`
	File        *mediaBlock     `json:"file"`
	Bookmark    *bookmarkBlock  `json:"bookmark"`
}

type richTextBlock struct {
	RichText []richTextObject `json:"rich_text"`
}

type toDoBlock struct {
	RichText []richTextObject `json:"rich_text"`
	Checked  bool             `json:"checked"`
}

type childPageBlock struct {
	Title string `json:"title"`
}

type codeBlock struct {
	RichText []richTextObject `json:"rich_text"`
	Language string           `json:"language"`
}

type bookmarkBlock struct {
	URL string `json:"url"`
}

type mediaBlock struct {
	fileOrExternal
	Caption []richTextObject `json:"caption"`
}

// toBlock maps one wire block onto the domain type. Unknown types map to
// KindUnsupported so rendering can degrade instead of failing.
func (o blockObject) toBlock() *models.Block {
	b := &models.Block{
		ID:          o.ID,
		Kind:        models.BlockKind(o.Type),
		HasChildren: o.HasChildren,
	}

	switch b.Kind {
	case models.KindParagraph:
		b.RichText = runsOf(o.Paragraph)
	case models.KindHeading1:
		b.RichText = runsOf(o.Heading1)
	case models.KindHeading2:
		b.RichText = runsOf(o.Heading2)
	case models.KindHeading3:
		b.RichText = runsOf(o.Heading3)
	case models.KindBulletedItem:
		b.RichText = runsOf(o.Bulleted)
	case models.KindNumberedItem:
		b.RichText = runsOf(o.Numbered)
	case models.KindToDo:
		if o.ToDo != nil {
			b.RichText = toRuns(o.ToDo.RichText)
			b.Checked = o.ToDo.Checked
		}
	case models.KindToggle:
		b.RichText = runsOf(o.Toggle)
	case models.KindChildPage:
		if o.ChildPage != nil {
			b.Title = o.ChildPage.Title
		}
	case models.KindImage:
		if o.Image != nil {
			b.URL = o.Image.url()
			b.Caption = plainText(o.Image.Caption)
		}
	case models.KindDivider:
		// No payload.
	case models.KindQuote:
		b.RichText = runsOf(o.Quote)
	case models.KindCode:
		if o.Code != nil {
			b.RichText = toRuns(o.Code.RichText)
			b.Language = o.Code.Language
		}
	case models.KindFile:
		if o.File != nil {
			b.URL = o.File.url()
			b.Caption = plainText(o.File.Caption)
		}
	case models.KindBookmark:
		if o.Bookmark != nil {
			b.URL = o.Bookmark.URL
		}
	default:
		b.Kind = models.KindUnsupported
		b.Title = o.Type
	}
	return b
}

func runsOf(rb *richTextBlock) []models.TextRun {
	if rb == nil {
		return nil
	}
	return toRuns(rb.RichText)
}

type pageObject struct {
	ID             string `json:"id"`
	LastEditedTime time.Time `json:"last_edited_time"`
	Properties     struct {
		Name struct {
			Title []richTextObject `json:"title"`
		} `json:"Name"`
		Slug struct {
			RichText []richTextObject `json:"rich_text"`
		} `json:"Slug"`
		Status struct {
			Select *struct {
				Name string `json:"name"`
			} `json:"select"`
		} `json:"Status"`
		Tags struct {
			MultiSelect []struct {
				Name string `json:"name"`
			} `json:"multi_select"`
		} `json:"Tags"`
		Published struct {
			Date *struct {
				Start string `json:"start"`
			} `json:"date"`
		} `json:"Published"`
		DraftPassword struct {
			RichText []richTextObject `json:"rich_text"`
		} `json:"Draft Password"`
	} `json:"properties"`
}

func (o pageObject) toPage() *models.Page {
	p := &models.Page{
		ID:            o.ID,
		Title:         plainText(o.Properties.Name.Title),
		Slug:          plainText(o.Properties.Slug.RichText),
		DraftPassword: plainText(o.Properties.DraftPassword.RichText),
		LastEdited:    o.LastEditedTime,
	}
	if p.Title == "" {
		p.Title = "Untitled"
	}
	if o.Properties.Status.Select != nil {
		p.Status = o.Properties.Status.Select.Name
	}
	for _, t := range o.Properties.Tags.MultiSelect {
		p.Tags = append(p.Tags, t.Name)
	}
	if d := o.Properties.Published.Date; d != nil && d.Start != "" {
		if ts, err := time.Parse("2006-01-02", d.Start); err == nil {
			p.Published = ts
		} else if ts, err := time.Parse(time.RFC3339, d.Start); err == nil {
			p.Published = ts
		}
	}
	return p
}
