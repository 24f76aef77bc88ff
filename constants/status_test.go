package constants

import "testing"

func TestCanTransitionForwardPath(t *testing.T) {
	cases := []struct {
		from, to ProcessingStatus
		want     bool
	}{
		{StatusNotProcessed, StatusPending, true},
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusSkipped, true},

		// no skipping ahead
		{StatusNotProcessed, StatusProcessing, false},
		{StatusNotProcessed, StatusCompleted, false},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},

		// no moving backwards
		{StatusProcessing, StatusPending, false},
		{StatusProcessing, StatusNotProcessed, false},
		{StatusPending, StatusNotProcessed, false},

		// terminal statuses only re-enter via explicit re-enqueue
		{StatusCompleted, StatusPending, true},
		{StatusFailed, StatusPending, true},
		{StatusSkipped, StatusPending, true},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusProcessing, false},
		{StatusSkipped, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []ProcessingStatus{StatusCompleted, StatusFailed, StatusSkipped}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []ProcessingStatus{StatusNotProcessed, StatusPending, StatusProcessing}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParseProcessingStatus(t *testing.T) {
	if s, ok := ParseProcessingStatus("PROCESSING"); !ok || s != StatusProcessing {
		t.Errorf("ParseProcessingStatus(PROCESSING) = %q, %v", s, ok)
	}
	if _, ok := ParseProcessingStatus("processing"); ok {
		t.Error("lowercase input should not parse; stored values are uppercase")
	}
	if _, ok := ParseProcessingStatus("DONE"); ok {
		t.Error("unknown status should not parse")
	}
}

func TestParseEntityKind(t *testing.T) {
	cases := []struct {
		input string
		want  EntityKind
		ok    bool
	}{
		{"note", KindNote, true},
		{"Notes", KindNote, true},
		{"ACTIVITIES", KindActivity, true},
		{" task ", KindTask, true},
		{"moments", KindMoment, true},
		{"document", KindDocument, true},
		{"journal", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseEntityKind(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseEntityKind(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEnrichableKinds(t *testing.T) {
	for _, k := range []EntityKind{KindNote, KindTask, KindActivity} {
		if !k.Enrichable() {
			t.Errorf("%s should be enrichable", k)
		}
	}
	for _, k := range []EntityKind{KindMoment, KindDocument} {
		if k.Enrichable() {
			t.Errorf("%s should not be enrichable", k)
		}
	}
}
