package pg

import (
	"strings"
	"testing"

	"github.com/dropDatabas3/workplane/migrations"
)

func TestPgIdentifierQuoting(t *testing.T) {
	if got := pgIdentifier("acmeco"); got != `"acmeco"` {
		t.Fatalf("got %s", got)
	}
	// Las comillas internas se duplican; no hay forma de escapar del
	// identificador.
	if got := pgIdentifier(`ac"meco`); got != `"ac""meco"` {
		t.Fatalf("got %s", got)
	}
}

func TestNamespaceIdentRe(t *testing.T) {
	for _, ok := range []string{"acmeco", "acme_co_2", "a"} {
		if !namespaceIdentRe.MatchString(ok) {
			t.Fatalf("%q should be a valid namespace identifier", ok)
		}
	}
	for _, bad := range []string{"", "Acme", "acme-co", "acme co", strings.Repeat("a", 51)} {
		if namespaceIdentRe.MatchString(bad) {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}

func TestEmbeddedDDLLoads(t *testing.T) {
	reg, err := loadDDL(migrations.RegistryFS, migrations.RegistryDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(reg) == 0 {
		t.Fatal("registry DDL is empty")
	}

	ns, err := loadDDL(migrations.NamespaceFS, migrations.NamespaceDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) == 0 {
		t.Fatal("namespace DDL is empty")
	}
	// El DDL por-namespace va sin calificar: se aplica con search_path.
	for _, stmt := range ns {
		low := strings.ToLower(stmt)
		if strings.Contains(low, "public.") {
			t.Fatalf("namespace DDL must not hardcode a schema: %s", stmt)
		}
	}
}
