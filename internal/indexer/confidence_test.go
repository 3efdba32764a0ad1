package indexer

import "testing"

func TestCanonicalConfidenceBucketAcceptsLegacyAliases(t *testing.T) {
	cases := []struct {
		label string
		want  string
		ok    bool
	}{
		{"static", ConfidenceHigh, true},
		{"heuristic", ConfidenceLow, true},
		{"high", ConfidenceHigh, true},
		{"medium", ConfidenceMedium, true},
		{"low", ConfidenceLow, true},
		{"nonsense", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := canonicalConfidenceBucket(c.label)
		if ok != c.ok || got != c.want {
			t.Errorf("canonicalConfidenceBucket(%q) = (%q, %v), want (%q, %v)", c.label, got, ok, c.want, c.ok)
		}
	}
}

func TestLooksExternalReference(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"github.com/org/pkg/auth", true},
		{"external::vendor_crate", true},
		{"std::collections::HashMap", true},
		{"core::option::Option", true},
		{"auth::validate_token", false},
		{"validate_token", false},
	}
	for _, c := range cases {
		if got := looksExternalReference(c.name); got != c.want {
			t.Errorf("looksExternalReference(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestInferResolutionOutcome(t *testing.T) {
	if got := inferResolutionOutcome("sym-123", "anything"); got != ResolutionResolvedInternal {
		t.Errorf("resolved symbol id = %q, want %q", got, ResolutionResolvedInternal)
	}
	if got := inferResolutionOutcome("", "auth::validate_token"); got != ResolutionUnresolved {
		t.Errorf("unresolved internal-looking name = %q, want %q", got, ResolutionUnresolved)
	}
	if got := inferResolutionOutcome("", "github.com/org/pkg/auth"); got != ResolutionExternalRef {
		t.Errorf("external-looking name = %q, want %q", got, ResolutionExternalRef)
	}
}

func TestAssignEdgeConfidenceCallEdgeHonorsExplicitBucket(t *testing.T) {
	conf := assignEdgeConfidence("calls", "", "external::vendor_fn", string("static"))
	if conf.Bucket != ConfidenceHigh {
		t.Errorf("bucket = %q, want %q", conf.Bucket, ConfidenceHigh)
	}
	if conf.Provider != EdgeProviderCallResolver {
		t.Errorf("provider = %q, want %q", conf.Provider, EdgeProviderCallResolver)
	}
	if conf.Outcome != ResolutionExternalRef {
		t.Errorf("outcome = %q, want %q", conf.Outcome, ResolutionExternalRef)
	}
	if conf.Weight != weightHigh {
		t.Errorf("weight = %v, want %v", conf.Weight, weightHigh)
	}
}

func TestAssignEdgeConfidenceImportEdgeUsesOutcomeDefault(t *testing.T) {
	conf := assignEdgeConfidence("imports", "", "github.com/org/pkg", "")
	if conf.Provider != EdgeProviderImportResolver {
		t.Errorf("provider = %q, want %q", conf.Provider, EdgeProviderImportResolver)
	}
	if conf.Outcome != ResolutionExternalRef {
		t.Errorf("outcome = %q, want %q", conf.Outcome, ResolutionExternalRef)
	}
	if conf.Bucket != ConfidenceMedium {
		t.Errorf("bucket = %q, want %q", conf.Bucket, ConfidenceMedium)
	}
}

func TestAssignEdgeConfidenceResolvedInternalIsHigh(t *testing.T) {
	conf := assignEdgeConfidence("calls", "sym-abc", "helper", "")
	if conf.Bucket != ConfidenceHigh {
		t.Errorf("bucket = %q, want %q", conf.Bucket, ConfidenceHigh)
	}
	if conf.Outcome != ResolutionResolvedInternal {
		t.Errorf("outcome = %q, want %q", conf.Outcome, ResolutionResolvedInternal)
	}
}
