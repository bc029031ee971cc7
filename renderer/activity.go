package renderer

import (
	"bytes"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio/activity"
)

// Activity renders records, in the given order, flagging the undoable ones.
func Activity(records []activity.Record) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Activity")
	if len(records) == 0 {
		doc.PlainText("No activity.")
		return doc.String()
	}
	items := make([]string, 0, len(records))
	for _, r := range records {
		item := r.Time.Format(time.DateTime) + " " + r.Entry.String()
		if r.CanUndo {
			item += " " + md.Italic("(undoable)")
		}
		items = append(items, item)
	}
	doc.BulletList(items...)
	return doc.String()
}
