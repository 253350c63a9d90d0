package types

import "testing"

func TestModelColumn(t *testing.T) {
	m := Model{
		Name:      "notes",
		Lifecycle: LifecycleVersioned,
		Fields: []Field{
			{Name: "body", Kind: KindString},
			{Name: "rank", Kind: KindNumber},
		},
	}

	tests := []struct {
		name     string
		field    string
		wantOK   bool
		wantBase bool
		wantKind string
	}{
		{"base id column", "id", true, true, KindString},
		{"base timestamp column", "created_at", true, true, KindTime},
		{"declared string field", "body", true, false, KindString},
		{"declared number field", "rank", true, false, KindNumber},
		{"undeclared field", "bogus", false, false, ""},
		{"data is not addressable", "data", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := m.Column(tt.field)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if col.Base != tt.wantBase {
				t.Errorf("base = %v, want %v", col.Base, tt.wantBase)
			}
			if col.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", col.Kind, tt.wantKind)
			}
		})
	}
}

func TestModelVersioned(t *testing.T) {
	if (Model{Lifecycle: LifecycleSingle}).Versioned() {
		t.Error("single lifecycle reported versioned")
	}
	if !(Model{Lifecycle: LifecycleVersioned}).Versioned() {
		t.Error("versioned lifecycle not reported")
	}
}
