package stage

import "testing"

func TestSortEnvelopeErrors_ByStageLocatorMessage(t *testing.T) {
	env := Envelope{
		Errors: []Error{
			{Stage: "serialize-csv", Locator: "b", Message: "m2"},
			{Stage: "load-logs", Locator: "fillingData#3", Message: "m2"},
			{Stage: "load-logs", Locator: "coloringData#0", Message: "m3"},
			{Stage: "load-logs", Locator: "coloringData#0", Message: "m1"},
		},
	}
	SortEnvelopeErrors(&env)
	want := []Error{
		{Stage: "load-logs", Locator: "coloringData#0", Message: "m1"},
		{Stage: "load-logs", Locator: "coloringData#0", Message: "m3"},
		{Stage: "load-logs", Locator: "fillingData#3", Message: "m2"},
		{Stage: "serialize-csv", Locator: "b", Message: "m2"},
	}
	for i := range want {
		if env.Errors[i] != want[i] {
			t.Fatalf("index %d mismatch: got=%+v want=%+v", i, env.Errors[i], want[i])
		}
	}
}
