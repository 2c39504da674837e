package reports

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/models"
	"gorm.io/gorm/schema"
)

// The report reads cached columns straight off business_transactions, so a
// renamed model field silently breaks the query at runtime. Check every
// bt.-qualified column against the parsed schema.
func TestDayBookReportSQLMatchesSchema(t *testing.T) {
	s, err := schema.Parse(&models.BusinessTransaction{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	known := map[string]bool{}
	for _, f := range s.Fields {
		known[f.DBName] = true
	}

	colRe := regexp.MustCompile(`bt\.([a-z_]+)`)
	matches := colRe.FindAllStringSubmatch(dayBookReportSQL, -1)
	if len(matches) == 0 {
		t.Fatalf("no bt.-qualified columns found in report SQL")
	}
	for _, m := range matches {
		if !known[m[1]] {
			t.Fatalf("report SQL reads bt.%s but business_transactions has no such column", m[1])
		}
	}

	if !strings.Contains(dayBookReportSQL, "bt.transaction_number") {
		t.Fatalf("report SQL must select the transaction number")
	}
}
