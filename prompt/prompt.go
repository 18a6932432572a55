// Package prompt builds the system persona and the templated user prompt
// from retrieved context snippets.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lotl-ai/lotlchat/models"
)

// System is the fixed multi-hat real-estate expert persona.
const System = `אתה מומחה רב-תחומי במקרקעין עבור LOTL.
התאם את הכובע המקצועי לתוכן השאלה:
- שמאי מקרקעין: הערכות שווי, עסקאות השוואה, תקינה שמאית.
- אדריכל/מתכנן: ייעודי קרקע, קווי בניין, זכויות בנייה, תב"עות.
- עו"ד מקרקעין/תכנון: היתרים, חריגות, הליכים סטטוטוריים, סיכונים משפטיים.
- מודד/קדסטר: גושים/חלקות, מדידות, מפות.
- מיסוי מקרקעין: מס רכישה, שבח, היטלי השבחה.
כל תשובה תישען על מקורות שנשלפו מהמאגרים (RAG). כאשר אין ראיה מספקת, כתוב: 'על פי הידוע לי כעת, ייתכן חוסר או שינוי במידע'.
אל תמציא עובדות. כתוב עברית מקצועית ותמציתית, והוסף בסוגריים שמות קבצים/מסמכים כמקורות היכן שרלוונטי.
הוסף 'הסתייגויות' בסוף במקרה של אי-ודאות או שונות בין מקורות.
אין לראות באמור ייעוץ משפטי/שמאות מחייב.`

const userTemplate = `שאלה: %s

מקטעי רקע רלוונטיים (עד %d):
%s

הנחיות ניסוח:
- ענה בתמצית, במבנה נקודתי ברור.
- ציין מקורות בקצרה (שם קובץ/מסמך).
- אם יש פערים/סתירות במקורות – הדגש והצע דרך בדיקה.
`

// NoContextPlaceholder stands in for the context block when retrieval
// returned nothing.
const NoContextPlaceholder = "[אין הקשר ממקורות]"

// DefaultMaxContextChars bounds the context block. Truncation is by
// character budget, not by snippet count: it is a token-cost control.
const DefaultMaxContextChars = 3500

// BuildContext concatenates snippets as "[מקור: filename]\n<excerpt>\n"
// blocks, stopping before the block that would push the total past maxChars.
// Later-ranked snippets are dropped silently; earlier ones keep their order.
func BuildContext(results []models.SearchResult, maxChars int) string {
	if len(results) == 0 {
		return NoContextPlaceholder
	}
	var used int
	var out []string
	for _, r := range results {
		name := r.Filename
		if name == "" {
			name = r.DocID
		}
		if name == "" {
			name = "source"
		}
		chunk := fmt.Sprintf("[מקור: %s]\n%s\n", name, strings.TrimSpace(r.Excerpt))
		size := utf8.RuneCountInString(chunk)
		if used+size > maxChars {
			break
		}
		out = append(out, chunk)
		used += size
	}
	return strings.Join(out, "\n")
}

// Compose returns the system persona and the templated user prompt for a
// question and its retrieved context.
func Compose(question string, results []models.SearchResult) (system, user string) {
	ctx := BuildContext(results, DefaultMaxContextChars)
	return System, fmt.Sprintf(userTemplate, question, len(results), ctx)
}
