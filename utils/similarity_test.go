package utils

import "testing"

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "sales", 5},
		{"sales", "", 5},
		{"kitten", "sitting", 3},
		{"quantity", "quantity", 0},
		{"qty", "quantity", 5},
	}
	for _, tc := range cases {
		if got := EditDistance(tc.a, tc.b); got != tc.expected {
			t.Fatalf("EditDistance(%q, %q) expected %d, got %d", tc.a, tc.b, tc.expected, got)
		}
		if ab, ba := EditDistance(tc.a, tc.b), EditDistance(tc.b, tc.a); ab != ba {
			t.Fatalf("EditDistance not symmetric for (%q, %q): %d vs %d", tc.a, tc.b, ab, ba)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Fatalf("Similarity of two empty strings expected 1.0, got %f", got)
	}
	if got := Similarity("revenue", "revenue"); got != 1.0 {
		t.Fatalf("Similarity of identical strings expected 1.0, got %f", got)
	}
	if got := Similarity("abcd", "abcf"); got != 0.75 {
		t.Fatalf("Similarity(abcd, abcf) expected 0.75, got %f", got)
	}
	pairs := [][2]string{
		{"", "description"},
		{"qty sold", "quantity sold"},
		{"total sales", "cogs"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		if s < 0 || s > 1 {
			t.Fatalf("Similarity(%q, %q) = %f out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestThresholdPolicyRatio(t *testing.T) {
	policy := DefaultThresholdPolicy()
	score := policy.Score("qty sold", "quantity sold")
	if !policy.Accept(score) {
		t.Fatalf("ratio policy rejected close pair (score %f)", score)
	}
	score = policy.Score("foo", "quantity sold")
	if policy.Accept(score) {
		t.Fatalf("ratio policy accepted distant pair (score %f)", score)
	}
	// Exactly at the threshold is not enough.
	exact := ThresholdPolicy{Kind: ThresholdRatio, MinRatio: 0.75}
	if exact.Accept(exact.Score("abcd", "abcf")) {
		t.Fatal("ratio policy accepted a score equal to the minimum")
	}
}

func TestThresholdPolicyAbsolute(t *testing.T) {
	policy := ThresholdPolicy{Kind: ThresholdAbsolute, MaxDistance: 2}
	if !policy.Accept(policy.Score("descriptio", "description")) {
		t.Fatal("absolute policy rejected pair at distance 1")
	}
	if !policy.Accept(policy.Score("description", "description")) {
		t.Fatal("absolute policy rejected identical pair")
	}
	if policy.Accept(policy.Score("qty", "quantity")) {
		t.Fatal("absolute policy accepted pair at distance 5")
	}
}
