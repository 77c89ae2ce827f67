package flags

import "testing"

func TestBucketIsStable(t *testing.T) {
	a := Bucket("user-123")
	b := Bucket("user-123")
	if a != b {
		t.Fatalf("expected stable bucket, got %d then %d", a, b)
	}
	if a < 0 || a >= 100 {
		t.Fatalf("bucket %d out of range [0,100)", a)
	}
}

func TestKillSwitchWins(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: true, KillSwitchActive: true, RolloutPercentage: 100})
	if e.Evaluate("t1", "any-user") {
		t.Fatalf("kill switch must force false regardless of rollout")
	}
}

func TestPersonalizationDisabled(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: false, RolloutPercentage: 100})
	if e.Evaluate("t1", "any-user") {
		t.Fatalf("expected false when personalization disabled")
	}
}

func TestFullRolloutEnablesEveryone(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	for _, u := range []string{"a", "b", "c", "some-long-user-hash"} {
		if !e.Evaluate("t1", u) {
			t.Fatalf("expected user %s enabled at 100%% rollout", u)
		}
	}
}

func TestZeroRolloutDisablesEveryone(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: true, RolloutPercentage: 0})
	for _, u := range []string{"a", "b", "c"} {
		if e.Evaluate("t1", u) {
			t.Fatalf("expected user %s disabled at 0%% rollout", u)
		}
	}
}

func TestUpdateIsVisibleImmediately(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	if !e.Evaluate("t1", "u1") {
		t.Fatalf("expected enabled before update")
	}
	e.Update(Settings{PersonalizationEnabled: true, KillSwitchActive: true, RolloutPercentage: 100})
	if e.Evaluate("t1", "u1") {
		t.Fatalf("expected disabled after kill switch update")
	}
}

func TestUpdateIncrementsVersion(t *testing.T) {
	e := New(Settings{PersonalizationEnabled: true, RolloutPercentage: 100})
	v0 := e.Snapshot().Version
	e.Update(Settings{PersonalizationEnabled: true, RolloutPercentage: 50})
	v1 := e.Snapshot().Version
	if v1 != v0+1 {
		t.Fatalf("expected version to increment by 1, got %d -> %d", v0, v1)
	}
}
