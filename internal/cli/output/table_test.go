package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kinance/kinance-go/internal/client/resource"
)

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter_Budgets(t *testing.T) {
	budgets := []resource.Budget{
		{ID: "b1", Name: "Groceries", Amount: resource.MustAmount("500"), Spent: resource.MustAmount("120.25"),
			Currency: "EUR", Period: resource.PeriodMonthly, UserID: "u1"},
		{ID: "b2", Name: "Travel", Amount: resource.MustAmount("1200"), Currency: "EUR",
			Period: resource.PeriodYearly, UserID: "u1"},
	}

	out := render(t, &TableFormatter{}, budgets)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	for _, want := range []string{"ID", "NAME", "AMOUNT", "SPENT", "PERIOD"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %s", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "120.25") || !strings.Contains(lines[2], "1200") {
		t.Errorf("amounts not rendered:\n%s", out)
	}
	if strings.Contains(out, "USER_ID") || strings.Contains(out, "CREATED_AT") {
		t.Errorf("wide columns shown without --wide:\n%s", out)
	}

	wide := render(t, &TableFormatter{Wide: true}, budgets)
	for _, want := range []string{"USER_ID", "START_DATE", "CREATED_AT", "u1"} {
		if !strings.Contains(wide, want) {
			t.Errorf("wide output missing %s:\n%s", want, wide)
		}
	}
}

func TestTableFormatter_SingleStruct(t *testing.T) {
	user := struct {
		ID       uuid.UUID `json:"id"`
		Email    string    `json:"email"`
		Phone    string    `json:"phone"`
		Password string    `json:"password" table:"-"`
	}{
		ID:       uuid.MustParse("6f1c2a9e-3b7d-4c1e-9a55-0d8e2f4b7c10"),
		Email:    "a@b.com",
		Password: "secret",
	}

	out := render(t, &TableFormatter{}, &user)
	for _, want := range []string{"FIELD", "VALUE", "6f1c2a9e-3b7d-4c1e-9a55-0d8e2f4b7c10", "a@b.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secret") {
		t.Errorf("table:\"-\" field rendered:\n%s", out)
	}
}

func TestTableFormatter_MapSortedByKey(t *testing.T) {
	out := render(t, &TableFormatter{NoHeaders: true}, map[string]any{
		"output":       "table",
		"api.base_url": "http://localhost:8080",
		"log.level":    "warn",
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for i, prefix := range []string{"api.base_url", "log.level", "output"} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], prefix)
		}
	}
}

func TestTableFormatter_PrebuiltTable(t *testing.T) {
	tbl := &Table{}
	tbl.SetHeaders("COMMAND", "DESCRIPTION")
	tbl.AddRow("login", "Sign in")
	tbl.AddRow("logout", "Sign out")

	out := render(t, &TableFormatter{}, tbl)
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Errorf("got %d lines, want 3:\n%s", len(lines), out)
	}

	out = render(t, &TableFormatter{NoHeaders: true}, *tbl)
	if strings.Contains(out, "COMMAND") {
		t.Errorf("headers rendered with NoHeaders:\n%s", out)
	}
}

func TestTableFormatter_EmptyAndNil(t *testing.T) {
	if out := render(t, &TableFormatter{}, []resource.Transaction{}); strings.TrimSpace(out) != "" {
		t.Errorf("empty slice output = %q", out)
	}
	if out := render(t, &TableFormatter{}, nil); out != "" {
		t.Errorf("nil output = %q", out)
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	out := render(t, &TableFormatter{}, 42)
	if strings.TrimSpace(out) != "42" {
		t.Errorf("scalar output = %q, want JSON fallback", out)
	}
}

func TestFormatValue(t *testing.T) {
	when := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	amount := resource.MustAmount("19.99")
	var nilAmount *resource.Amount
	var iface any = "groceries"

	tests := []struct {
		name string
		in   reflect.Value
		want string
	}{
		{"invalid", reflect.Value{}, ""},
		{"string", reflect.ValueOf("EUR"), "EUR"},
		{"empty string", reflect.ValueOf(""), "-"},
		{"int", reflect.ValueOf(3), "3"},
		{"uint", reflect.ValueOf(uint8(7)), "7"},
		{"float", reflect.ValueOf(2.5), "2.50"},
		{"bool", reflect.ValueOf(true), "true"},
		{"time", reflect.ValueOf(when), "2025-03-14 09:30"},
		{"zero time", reflect.ValueOf(time.Time{}), "-"},
		{"amount", reflect.ValueOf(amount), "19.99"},
		{"amount pointer", reflect.ValueOf(&amount), "19.99"},
		{"nil amount", reflect.ValueOf(nilAmount), ""},
		{"uuid", reflect.ValueOf(uuid.Nil), "00000000-0000-0000-0000-000000000000"},
		{"named string", reflect.ValueOf(resource.PeriodWeekly), "weekly"},
		{"interface", reflect.ValueOf(&iface).Elem(), "groceries"},
		{"slice", reflect.ValueOf([]string{"a", "b"}), "[2 items]"},
		{"empty slice", reflect.ValueOf([]string{}), "-"},
		{"map", reflect.ValueOf(map[string]int{"x": 1}), "{1 keys}"},
		{"struct", reflect.ValueOf(resource.ReceiptItem{Name: "milk"}), "{3 fields}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.in); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"name":      "name",
		"startDate": "start_Date",
		"userId":    "user_Id",
		"BudgetID":  "Budget_I_D",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
