package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// The tools return failure text instead of errors: an error return would
// abort the agent run, while a sentence lets the model report the miss.

type searchTool struct {
	log    *slog.Logger
	source DataSource
}

func (t searchTool) Name() string {
	return "search_taba_info"
}

func (t searchTool) Description() string {
	return `חיפוש תכניות בניין עיר (תב"ע) באתר tabainfo.co.il.
Input is either a JSON object {"block":"","lot":"","plan":"","locality":""}
(all fields optional: block/lot identify a parcel, plan is a plan number,
locality is a town name) or a bare plan number.
Returns the matching plan names and numbers.`
}

func (t searchTool) Call(ctx context.Context, input string) (string, error) {
	q := parsePlanQuery(input)
	plans, err := t.source.SearchPlans(ctx, q)
	if err != nil {
		t.log.Error("plan search failed", slog.Any("error", err))
		return fmt.Sprintf("שגיאה בחיבור לאתר: %v", err), nil
	}
	if len(plans) == 0 {
		return "לא נמצאו תכניות תואמות בתוצאות האתר. ייתכן והפרמטרים לא נכונים או שהאתר לא מכיל מידע על החיפוש.", nil
	}
	found := make([]string, len(plans))
	for i, p := range plans {
		found[i] = fmt.Sprintf("%s (%s)", p.Name, p.Number)
	}
	return "התוכניות הבאות נמצאו באתר: " + strings.Join(found, ", "), nil
}

func parsePlanQuery(input string) (q PlanQuery) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		if err := json.Unmarshal([]byte(input), &q); err == nil {
			return q
		}
	}
	// Bare input is taken as a plan number.
	q.Plan = input
	return q
}

type zoningTool struct {
	table []zoningFixture
}

func (t zoningTool) Name() string {
	return "get_parcels_by_zoning"
}

func (t zoningTool) Description() string {
	return `איתור מגרשים (חלקות) לפי עיר וסוג ייעוד (למשל "תעשייה", "מגורים", "מסחר").
Input is a JSON object {"city":"","zoning":""}.
Returns the parcel numbers and the relevant urban building plans.`
}

func (t zoningTool) Call(ctx context.Context, input string) (string, error) {
	var req struct {
		City   string `json:"city"`
		Zoning string `json:"zoning"`
	}
	_ = json.Unmarshal([]byte(strings.TrimSpace(input)), &req)
	for _, f := range t.table {
		if f.City == strings.TrimSpace(req.City) && f.Zoning == strings.TrimSpace(req.Zoning) {
			return f.Answer, nil
		}
	}
	return "לא נמצאו מגרשים התואמים לקריטריונים.", nil
}

type planDetailsTool struct {
	table []planFixture
}

func (t planDetailsTool) Name() string {
	return "get_plan_details"
}

func (t planDetailsTool) Description() string {
	return `קבלת פרטים מפורטים על תכנית בניין עיר (תב"ע) ספציפית: ייעוד, זכויות בניה ושטחים.
Input is the plan number, e.g. "100/1".`
}

func (t planDetailsTool) Call(ctx context.Context, input string) (string, error) {
	number := strings.TrimSpace(strings.Trim(strings.TrimSpace(input), `"`))
	for _, f := range t.table {
		if f.Number == number {
			return f.Details, nil
		}
	}
	return "לא נמצאו פרטים לתכנית זו.", nil
}
